package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/pipeline"
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/player/headless"
	"github.com/jmylchreest/vidroute/internal/probe"
	"github.com/jmylchreest/vidroute/internal/reporting"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/internal/youtube"
	"github.com/jmylchreest/vidroute/pkg/format"
)

var (
	playJSON       bool
	playNoRetry    bool
	playMaxRetries int
	playHold       time.Duration
	playMetrics    bool
)

var playCmd = &cobra.Command{
	Use:   "play URL",
	Short: "Bind a playback session for a URL",
	Long: `Run the playback pipeline for a URL against the headless player: classify
the source, resolve YouTube embed fallbacks, probe direct files, and bind the
first candidate that loads, retrying under the configured policy.

Progress is printed as the pipeline moves between states. On success the
session is held for --hold before being torn down. Errors of error severity
and above are forwarded to the reporting endpoint when reporting is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playJSON, "json", false, "print the pipeline result as JSON")
	playCmd.Flags().BoolVar(&playNoRetry, "no-retry", false, "make a single attempt")
	playCmd.Flags().IntVar(&playMaxRetries, "max-retries", 0, "total attempt ceiling (default from pipeline.max_retries)")
	playCmd.Flags().DurationVar(&playHold, "hold", 0, "keep the bound session playing for this long")
	playCmd.Flags().BoolVar(&playMetrics, "metrics", false, "print collected metrics on exit")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	if playMetrics {
		defer func() {
			if merr := writeMetrics(out, reg); merr != nil && err == nil {
				err = merr
			}
		}()
	}

	var reporter pipeline.ErrorReporter
	if appConfig.Reporting.Enabled {
		sink := reporting.NewHTTPSink(appConfig.Reporting.Endpoint, appConfig.Reporting.APIKey, nil, logger)
		forwarder := reporting.NewForwarder(appConfig.Reporting, sink, reporting.CollectDeviceInfo(ctx), logger, metrics)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appConfig.Reporting.DrainPeriod)
			defer cancel()
			if cerr := forwarder.Close(closeCtx); cerr != nil {
				logger.Warn("error reports not fully delivered", slog.String("error", cerr.Error()))
			}
		}()
		reporter = forwarder
	}

	client := probe.NewClient(appConfig.HTTP, logger)
	loader := headless.NewLoader(appConfig.WebView, appConfig.Probe.UserAgent, nil, logger)

	orch, err := pipeline.New(pipeline.Options{
		Factory:  headless.NewFactory(loader, logger),
		Resolver: youtube.NewResolver(youtube.EmbedOptionsFromConfig(appConfig.YouTube)),
		Prober:   probe.New(appConfig.Probe, client, logger, metrics),
		Reporter: reporter,
		Config:   appConfig.Pipeline,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}
	defer func() {
		if derr := orch.Destroy(context.WithoutCancel(ctx)); derr != nil {
			logger.Warn("destroying session failed", slog.String("error", derr.Error()))
		}
	}()

	req := orch.NewRequest(args[0])
	if playNoRetry {
		req.AutoRetry = false
	}
	if playMaxRetries > 0 {
		req.MaxRetries = playMaxRetries
	}
	if !playJSON {
		req.OnProgress = func(state pipeline.State, attempt int) {
			if attempt > 0 {
				fmt.Fprintf(out, "[%s] attempt %d\n", state, attempt)
				return
			}
			fmt.Fprintf(out, "[%s]\n", state)
		}
		req.OnFallback = func(from, to player.Family) {
			fmt.Fprintf(out, "  falling back: %s -> %s\n", from, to)
		}
	}

	res := orch.Execute(ctx, req)

	if playJSON {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		printPlayResult(out, res)
	}

	if !res.Success {
		return fmt.Errorf("playback failed: %w", res.FinalError)
	}

	if playHold > 0 {
		return hold(ctx, out, orch, res.Adapter, playHold)
	}
	return nil
}

func printPlayResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tPLAYER\tRESULT\tELAPSED\tURL")
	for _, att := range res.Attempts {
		result := "bound"
		if att.Error != nil {
			result = att.Error.Code
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			att.Number, att.Family, result, format.Elapsed(att.Duration), urlutil.Truncate(urlutil.Redact(att.URL), 80))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	if res.Success {
		fmt.Fprintf(w, "Bound %s player for %s source in %s (session %s)\n",
			res.Adapter.Family(), res.Classification.Type, format.Elapsed(res.Duration), res.SessionID)
		return
	}

	fmt.Fprintf(w, "Failed: %s [%s, %s]\n", res.FinalError.Message, res.FinalError.Code, res.FinalError.Severity)
	if res.Diagnostics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, res.Diagnostics)
	}
}

// hold plays the bound session until d elapses or ctx is cancelled, then
// pauses it and prints the position reached.
func hold(ctx context.Context, w io.Writer, orch *pipeline.Orchestrator, adapter player.Adapter, d time.Duration) error {
	if err := adapter.Play(ctx); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
	}

	// Pausing publishes the final position to the session snapshot.
	if err := adapter.Pause(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("pausing playback: %w", err)
	}
	snap := orch.Snapshot()
	fmt.Fprintf(w, "Paused at %s (rate %.2fx, volume %s)\n",
		snap.Playback.CurrentTime.Truncate(time.Millisecond), snap.Playback.PlaybackRate,
		format.Percentage(snap.Playback.Volume*100, 0))
	return nil
}

// writeMetrics prints every gathered metric family in the Prometheus text format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
