// Package main is the entry point for the vidroute command.
package main

import (
	"os"

	"github.com/jmylchreest/vidroute/cmd/vidroute/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
