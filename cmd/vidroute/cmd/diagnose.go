package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vidroute/internal/diagnostics"
	"github.com/jmylchreest/vidroute/internal/probe"
)

var (
	diagnoseError string
	diagnoseProbe bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose URL",
	Short: "Print playback troubleshooting text for a URL",
	Long: `Print the troubleshooting report shown when a direct video fails to play:
container and codec findings, support verdict, issues and recommendations.

With --probe the URL is fetched first and the probe findings (status, size,
range support, redirects) are included.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseError, "error", "", "error text to include in the report")
	diagnoseCmd.Flags().BoolVar(&diagnoseProbe, "probe", false, "probe the URL and include the findings")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	var res *probe.Result
	if diagnoseProbe {
		prober := probe.New(appConfig.Probe, probe.NewClient(appConfig.HTTP, logger), logger, nil)
		r := prober.Validate(cmd.Context(), rawURL)
		res = &r
		if diagnoseError == "" {
			diagnoseError = r.ErrorMessage
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), diagnostics.GenerateWithProbe(rawURL, res, diagnoseError))
	return nil
}
