package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vidroute/internal/source"
	"github.com/jmylchreest/vidroute/internal/urlutil"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify URL...",
	Short: "Classify URLs and show which player renders them",
	Long: `Classify one or more URLs by source type (youtube, direct, hls, dash,
adult, social, cloud, unknown) and print the player family that would be
used. Nothing is fetched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(classifyCmd)
}

type classifyOutput struct {
	URL string `json:"url"`
	source.Classification
	Streaming bool `json:"streaming"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	classifier := source.NewClassifier(logger, nil)

	results := make([]classifyOutput, 0, len(args))
	for _, rawURL := range args {
		cls := classifier.Classify(rawURL)
		results = append(results, classifyOutput{
			URL:            urlutil.Redact(rawURL),
			Classification: cls,
			Streaming:      cls.IsStreaming(),
		})
	}

	if classifyJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "TYPE\tPLAYER\tPLATFORM\tVIDEO ID\tURL")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Type, r.UsePlayer, orDash(r.Platform), orDash(r.VideoID), urlutil.Truncate(r.URL, 80))
	}
	return tw.Flush()
}
