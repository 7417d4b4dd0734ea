package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vidroute/internal/youtube"
)

var (
	youtubeJSON  bool
	youtubeStart time.Duration
)

var youtubeCmd = &cobra.Command{
	Use:   "youtube URL",
	Short: "Resolve a YouTube URL into embed candidates",
	Long: `Extract the video id from a YouTube URL and print the embed URL plus the
ordered fallback variants the player tries when the primary embed fails.

Embed parameters come from the youtube section of the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runYouTube,
}

func init() {
	youtubeCmd.Flags().BoolVar(&youtubeJSON, "json", false, "output as JSON")
	youtubeCmd.Flags().DurationVar(&youtubeStart, "start", 0, "start offset encoded into the primary embed URL")
	rootCmd.AddCommand(youtubeCmd)
}

func runYouTube(cmd *cobra.Command, args []string) error {
	opts := youtube.EmbedOptionsFromConfig(appConfig.YouTube)
	opts.Start = youtubeStart

	res, ok := youtube.NewResolver(opts).Resolve(args[0])
	if !ok {
		return errors.New(res.Info.Reason)
	}

	if youtubeJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			youtube.PlaybackInfo
			Candidates []string `json:"candidates"`
		}{res.Info, res.Candidates()})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Video ID: %s\n", res.Info.VideoID)
	fmt.Fprintf(out, "Mode:     %s (%s)\n", res.Info.Mode, res.Info.Reason)
	fmt.Fprintln(out, "Candidates:")
	for i, u := range res.Candidates() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, u)
	}
	return nil
}
