package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vidroute/internal/codec"
	"github.com/jmylchreest/vidroute/internal/probe"
	"github.com/jmylchreest/vidroute/pkg/format"
)

var (
	probeJSON     bool
	probeTimeout  time.Duration
	probeManifest bool
)

var probeCmd = &cobra.Command{
	Use:   "probe URL",
	Short: "Check that a direct video URL is reachable",
	Long: `Send a bounded ranged request to a direct video URL and report status,
content type, size, range support and redirects, together with the codec
heuristics for the URL. HLS playlists are parsed with --manifest.

A successful probe means the server answered plausibly; it does not prove the
media can be decoded.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "output as JSON")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 0, "probe timeout (default from probe.timeout)")
	probeCmd.Flags().BoolVar(&probeManifest, "manifest", false, "fetch and inspect HLS playlists")
	rootCmd.AddCommand(probeCmd)
}

type probeOutput struct {
	Probe    probe.Result        `json:"probe"`
	Format   codec.FormatInfo    `json:"format"`
	Codec    codec.Info          `json:"codec"`
	Manifest *probe.ManifestInfo `json:"manifest,omitempty"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	ctx := cmd.Context()

	prober := probe.New(appConfig.Probe, probe.NewClient(appConfig.HTTP, logger), logger, nil)

	timeout := appConfig.Probe.Timeout
	if probeTimeout > 0 {
		timeout = probeTimeout
	}

	out := probeOutput{
		Probe:  prober.ValidateWithTimeout(ctx, rawURL, timeout),
		Format: codec.DetectFormat(rawURL),
		Codec:  codec.DetectCodec(rawURL),
	}
	if probeManifest && out.Probe.IsValid {
		m := prober.InspectManifest(ctx, rawURL)
		out.Manifest = &m
	}

	if probeJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	res := out.Probe
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Outcome:\t%s\n", res.Outcome)
	fmt.Fprintf(tw, "Valid:\t%t\n", res.IsValid)
	fmt.Fprintf(tw, "Playable type:\t%t\n", res.CanPlay)
	if res.StatusCode > 0 {
		fmt.Fprintf(tw, "Status:\t%d\n", res.StatusCode)
	}
	fmt.Fprintf(tw, "Content type:\t%s\n", orDash(res.ContentType))
	size := format.Bytes(res.ContentLength)
	if res.ContentLength > 0 {
		size += " (" + format.Number(res.ContentLength) + " bytes)"
	}
	fmt.Fprintf(tw, "Size:\t%s\n", size)
	fmt.Fprintf(tw, "Range requests:\t%t\n", res.SupportsRange)
	if res.RedirectURL != "" {
		fmt.Fprintf(tw, "Redirected to:\t%s\n", res.RedirectURL)
	}
	fmt.Fprintf(tw, "Elapsed:\t%s\n", format.Elapsed(res.Duration))
	fmt.Fprintf(tw, "Container:\t%s\n", out.Format.Name)
	fmt.Fprintf(tw, "Codec verdict:\t%s\n", supportLabel(out.Codec.Supported))
	if res.ErrorMessage != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", res.ErrorMessage)
	}
	if res.Warning != "" {
		fmt.Fprintf(tw, "Warning:\t%s\n", res.Warning)
	}
	if m := out.Manifest; m != nil {
		fmt.Fprintf(tw, "Manifest:\t%s\n", m.Kind)
		if m.Error != "" {
			fmt.Fprintf(tw, "Manifest error:\t%s\n", m.Error)
		} else {
			fmt.Fprintf(tw, "Variants:\t%s (%s playable)\n",
				strconv.Itoa(m.VariantCount), strconv.Itoa(m.PlayableVariants))
			fmt.Fprintf(tw, "Segments:\t%s\n", format.NumberCompact(int64(m.SegmentCount)))
			fmt.Fprintf(tw, "Codecs:\t%v\n", m.Codecs)
			fmt.Fprintf(tw, "Live:\t%t\n", m.Live)
			fmt.Fprintf(tw, "Encrypted:\t%t\n", m.Encrypted)
		}
	}
	return tw.Flush()
}

func supportLabel(ok bool) string {
	if ok {
		return "likely supported"
	}
	return "not supported"
}
