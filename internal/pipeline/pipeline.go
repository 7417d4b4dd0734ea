// Package pipeline binds a playback request to a player adapter.
//
// An execution classifies the URL, builds an ordered list of candidates
// (YouTube embed fallbacks, a probed direct file, or a single page), then
// tries them under a fixed-delay retry budget until one binds. The
// orchestrator owns at most one session: a new Execute or a Destroy tears
// the previous one down, and completions from a torn-down session are
// discarded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/vidroute/internal/codec"
	"github.com/jmylchreest/vidroute/internal/config"
	"github.com/jmylchreest/vidroute/internal/diagnostics"
	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/probe"
	"github.com/jmylchreest/vidroute/internal/reporting"
	"github.com/jmylchreest/vidroute/internal/source"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/internal/youtube"
)

// ErrNoFactory is returned by New when no player factory is configured.
var ErrNoFactory = errors.New("player factory is required")

// Execution outcomes recorded in metrics.
const (
	outcomeSuccess   = "success"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

// Options configures an Orchestrator. Only Factory is required.
type Options struct {
	Factory    player.Factory
	Classifier *source.Classifier
	Resolver   *youtube.Resolver
	// Prober validates direct files; nil skips probing.
	Prober   Prober
	Controls *player.ControlRegistry
	Reporter ErrorReporter
	Config   config.PipelineConfig
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Orchestrator runs playback requests. It is safe for concurrent use, but
// holds a single session: overlapping Execute calls supersede each other.
type Orchestrator struct {
	factory    player.Factory
	classifier *source.Classifier
	resolver   *youtube.Resolver
	prober     Prober
	controls   *player.ControlRegistry
	reporter   ErrorReporter
	cfg        config.PipelineConfig
	logger     *slog.Logger
	metrics    *observability.Metrics

	// cbMu is held while caller callbacks run; teardown acquires it after
	// bumping the epoch so that no callback starts once it returns.
	cbMu sync.Mutex

	mu       sync.Mutex
	epoch    uint64
	state    State
	session  string
	family   player.Family
	url      string
	attempt  int
	cancel   context.CancelFunc
	adapter  player.Adapter
	unsubs   []func()
	bound    player.Controls
	playback player.PlaybackState
}

// New creates an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Factory == nil {
		return nil, ErrNoFactory
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Classifier == nil {
		opts.Classifier = source.NewClassifier(opts.Logger, opts.Metrics)
	}
	if opts.Resolver == nil {
		opts.Resolver = youtube.NewResolver(youtube.DefaultEmbedOptions())
	}
	if opts.Controls == nil {
		opts.Controls = player.NewControlRegistry()
	}
	if opts.Config.MaxRetries <= 0 {
		opts.Config.MaxRetries = config.Default().Pipeline.MaxRetries
	}
	if opts.Config.RetryDelay < 0 {
		opts.Config.RetryDelay = 0
	}

	return &Orchestrator{
		factory:    opts.Factory,
		classifier: opts.Classifier,
		resolver:   opts.Resolver,
		prober:     opts.Prober,
		controls:   opts.Controls,
		reporter:   opts.Reporter,
		cfg:        opts.Config,
		logger:     observability.WithComponent(opts.Logger, "pipeline"),
		metrics:    opts.Metrics,
		playback:   player.InitialState(),
	}, nil
}

// NewRequest returns a request for rawURL using the configured retry policy.
func (o *Orchestrator) NewRequest(rawURL string) Request {
	return Request{
		URL:        rawURL,
		AutoRetry:  o.cfg.AutoRetry,
		MaxRetries: o.cfg.MaxRetries,
	}
}

// Controls returns the registry the bound adapter's controls are published to.
func (o *Orchestrator) Controls() *player.ControlRegistry {
	return o.controls
}

// Snapshot returns the current orchestrator state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:     o.state,
		SessionID: o.session,
		Family:    o.family,
		URL:       o.url,
		Attempt:   o.attempt,
		Bound:     o.adapter != nil,
		Playback:  o.playback,
	}
}

// Execute runs req to completion and returns its result. Any previous
// session is torn down first; a superseded Execute returns a result whose
// FinalError has code PIPELINE_CANCELLED.
func (o *Orchestrator) Execute(ctx context.Context, req Request) *Result {
	start := time.Now()
	sessionID := uuid.NewString()

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	epoch, prev := o.begin(sessionID, req.URL, cancel)
	o.release(context.WithoutCancel(ctx), prev)

	e := &execution{
		o:      o,
		epoch:  epoch,
		req:    req,
		url:    strings.TrimSpace(req.URL),
		logger: observability.WithSessionID(o.logger, sessionID),
		result: &Result{SessionID: sessionID},
	}
	e.logger.Info("playback requested",
		slog.String("url", urlutil.Redact(e.url)),
		slog.Bool("auto_retry", req.AutoRetry),
		slog.Int("max_retries", req.MaxRetries),
	)

	res := e.run(execCtx)
	res.Duration = time.Since(start)

	outcome := outcomeFailed
	switch {
	case res.Success:
		outcome = outcomeSuccess
	case res.Cancelled():
		outcome = outcomeCancelled
	}
	o.metrics.RecordExecution(outcome, res.Duration)
	e.logger.Info("playback request finished",
		slog.String("outcome", outcome),
		slog.Int("attempts", len(res.Attempts)),
		slog.Duration("duration", res.Duration),
	)
	return res
}

// Destroy tears down the current session from any state: in-flight work is
// cancelled and its results discarded, listeners are removed, the adapter
// is destroyed and its controls unregistered. No request callback runs after
// Destroy returns.
func (o *Orchestrator) Destroy(ctx context.Context) error {
	o.mu.Lock()
	o.epoch++
	prev := o.detachLocked()
	o.state = StateDestroyed
	o.mu.Unlock()

	o.cbMu.Lock()
	//nolint:staticcheck // empty critical section waits for a running callback
	o.cbMu.Unlock()

	o.logger.Debug("pipeline destroyed")
	return o.release(ctx, prev)
}

// session is the teardown state detached from the orchestrator.
type session struct {
	cancel   context.CancelFunc
	adapter  player.Adapter
	unsubs   []func()
	controls player.Controls
}

func (o *Orchestrator) begin(sessionID, rawURL string, cancel context.CancelFunc) (uint64, session) {
	o.mu.Lock()
	o.epoch++
	epoch := o.epoch
	prev := o.detachLocked()
	o.cancel = cancel
	o.session = sessionID
	o.state = StateIdle
	o.url = rawURL
	o.family = ""
	o.attempt = 0
	o.playback = player.InitialState()
	o.mu.Unlock()

	o.cbMu.Lock()
	//nolint:staticcheck // empty critical section waits for a running callback
	o.cbMu.Unlock()
	return epoch, prev
}

func (o *Orchestrator) detachLocked() session {
	prev := session{
		cancel:   o.cancel,
		adapter:  o.adapter,
		unsubs:   o.unsubs,
		controls: o.bound,
	}
	o.cancel = nil
	o.adapter = nil
	o.unsubs = nil
	o.bound = nil
	return prev
}

func (o *Orchestrator) release(ctx context.Context, s session) error {
	if s.cancel != nil {
		s.cancel()
	}
	for _, unsubscribe := range s.unsubs {
		unsubscribe()
	}
	if s.controls != nil {
		o.controls.Unregister(s.controls)
	}
	if s.adapter == nil {
		return nil
	}
	if err := s.adapter.Destroy(ctx); err != nil {
		o.logger.Warn("adapter destroy failed", slog.String("error", err.Error()))
		return fmt.Errorf("destroying adapter: %w", err)
	}
	return nil
}

// create calls the factory, converting a panic into an error.
func (o *Orchestrator) create(ctx context.Context, src player.Source) (adapter player.Adapter, err error) {
	defer func() {
		if r := recover(); r != nil {
			adapter = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	adapter, err = o.factory.Create(ctx, src)
	if err != nil {
		if adapter != nil {
			destroyQuietly(adapter)
		}
		return nil, err
	}
	if adapter == nil {
		return nil, errors.New("factory returned no adapter")
	}
	return adapter, nil
}

// execution is the state of one Execute call.
type execution struct {
	o      *Orchestrator
	epoch  uint64
	req    Request
	url    string
	logger *slog.Logger
	result *Result
}

func (e *execution) run(ctx context.Context) *Result {
	res := e.result

	if !e.transition(StateClassifying, 0) {
		return e.cancelled()
	}
	cls := e.o.classifier.Classify(e.url)
	res.Classification = cls

	if e.url == "" {
		return e.fail(player.NewError(player.CodeInitializationFailed, "No URL to play", player.SeverityFatal, false), nil)
	}

	if !e.transition(StateResolving, 0) {
		return e.cancelled()
	}
	plan := buildPlan(cls, e.url, e.o.resolver)
	res.Candidates = plan
	e.logger.Debug("candidates resolved",
		slog.String("type", cls.Type.String()),
		slog.String("platform", cls.Platform),
		slog.Int("candidates", len(plan)),
	)

	maxAttempts := max(e.req.MaxRetries, 1)
	if !e.req.AutoRetry {
		maxAttempts = 1
	}

	var (
		idx        int
		last       *player.Error
		lastProbe  *probe.Result
		prevFamily player.Family
	)

	for n := 1; n <= maxAttempts; n++ {
		cand := plan[idx]

		if n > 1 {
			if !e.transition(StateRetrying, n) {
				return e.cancelled()
			}
			if err := sleep(ctx, e.o.cfg.RetryDelay); err != nil {
				return e.cancelled()
			}
			if cand.Family != prevFamily && !e.fallback(prevFamily, cand.Family) {
				return e.cancelled()
			}
		}
		if !e.transition(StateBinding, n) {
			return e.cancelled()
		}

		att, adapter := e.attempt(ctx, cand, cls, n)
		res.Attempts = append(res.Attempts, att)
		prevFamily = cand.Family
		if att.Probe != nil {
			lastProbe = att.Probe
		}

		if e.stale(ctx) {
			if adapter != nil {
				destroyQuietly(adapter)
			}
			return e.cancelled()
		}

		if adapter != nil {
			if !e.bind(adapter, cand, n) || !e.transition(StateBound, n) {
				return e.cancelled()
			}
			res.Success = true
			res.Adapter = adapter
			e.logger.Info("player bound",
				slog.String("family", cand.Family.String()),
				slog.String("url", urlutil.Redact(cand.URL)),
				slog.Int("attempt", n),
			)
			return res
		}

		last = att.Error
		if last.Code == player.CodePipelineCancelled {
			return e.cancelled()
		}

		switch {
		case idx < len(plan)-1:
			idx++
		case last.Terminal():
			return e.fail(last, lastProbe)
		}
	}

	final := player.NewError(player.CodeInitializationFailed,
		fmt.Sprintf("Failed to initialize player after %d attempts: %s", len(res.Attempts), last.Message),
		player.SeverityFatal, false).WithURL(e.url).WithCause(last)
	final.Platform = cls.Platform
	return e.fail(final, lastProbe)
}

// attempt probes (for direct files) and binds one candidate. It returns the
// adapter on success; otherwise the attempt carries the error.
func (e *execution) attempt(ctx context.Context, cand Candidate, cls source.Classification, n int) (att Attempt, adapter player.Adapter) {
	att = Attempt{Number: n, Family: cand.Family, URL: cand.URL, StartedAt: time.Now()}
	defer func() {
		att.Duration = time.Since(att.StartedAt)
		e.o.metrics.RecordAttempt(cand.Family.String(), adapter != nil)
		if att.Error != nil {
			e.logger.Info("attempt failed",
				slog.Int("attempt", n),
				slog.String("family", cand.Family.String()),
				slog.String("code", att.Error.Code),
				slog.String("error", att.Error.Message),
				slog.Bool("terminal", att.Error.Terminal()),
			)
		}
	}()

	if cand.Probe {
		if perr := e.inspect(ctx, cand, &att); perr != nil {
			perr.Platform = cls.Platform
			att.Error = perr
			return att, nil
		}
	}

	src := player.Source{
		Family:      cand.Family,
		URL:         cand.URL,
		OriginalURL: e.url,
		Platform:    cls.Platform,
		VideoID:     cls.VideoID,
		Attempt:     n,
	}
	adapter, err := e.o.create(ctx, src)
	if err != nil {
		att.Error = e.bindError(ctx, err, cand, cls.Platform)
		return att, nil
	}
	return att, adapter
}

// inspect runs the probe, codec check and manifest inspection for a direct
// source. Only an unreachable source fails the attempt; codec and manifest
// findings are advisory.
func (e *execution) inspect(ctx context.Context, cand Candidate, att *Attempt) *player.Error {
	if e.o.prober != nil {
		pr := e.o.prober.Validate(ctx, cand.URL)
		att.Probe = &pr
		if perr := probeError(pr); perr != nil {
			return perr
		}
		if pr.Warning != "" {
			e.logger.Warn("probe warning", slog.String("warning", pr.Warning))
		}
	}

	info := codec.DetectCodec(cand.URL)
	att.Codec = &info
	if !info.Supported {
		e.logger.Warn("source may not be playable",
			slog.String("reason", info.ErrorMessage),
			slog.String("recommendation", info.Recommendation),
		)
	}

	if cand.InspectManifest && e.o.prober != nil && e.o.prober.InspectsManifests() {
		m := e.o.prober.InspectManifest(ctx, cand.URL)
		att.Manifest = &m
		if !m.Playable() {
			e.logger.Warn("manifest has no playable variant",
				slog.Any("unsupported_codecs", m.UnsupportedCodecs),
			)
		}
	}
	return nil
}

func (e *execution) bindError(ctx context.Context, err error, cand Candidate, platform string) *player.Error {
	if perr, ok := player.AsError(err); ok {
		if perr.URL == "" {
			perr = perr.WithURL(cand.URL)
		}
		return perr
	}
	if ctx.Err() != nil {
		return player.NewError(player.CodePipelineCancelled, "Playback request cancelled", player.SeverityWarning, true)
	}
	perr := player.NewError(player.CodeInitializationException,
		fmt.Sprintf("Unexpected error initializing %s player: %v", cand.Family, err),
		player.SeverityError, true).WithURL(cand.URL).WithCause(err)
	perr.Platform = platform
	return perr
}

// bind subscribes to the adapter and publishes it as the current session.
// It returns false, destroying the adapter, when the execution went stale.
func (e *execution) bind(adapter player.Adapter, cand Candidate, n int) bool {
	o := e.o
	if e.stale(context.Background()) {
		destroyQuietly(adapter)
		return false
	}

	unsubState := adapter.OnStateChange(func(s player.PlaybackState) {
		o.mu.Lock()
		if o.epoch == e.epoch {
			o.playback = s
		}
		o.mu.Unlock()
	})
	unsubError := adapter.OnError(e.adapterError)

	var controls player.Controls
	if cp, ok := adapter.(player.ControlProvider); ok {
		controls = cp.Controls()
	}

	o.mu.Lock()
	if o.epoch != e.epoch {
		o.mu.Unlock()
		unsubState()
		unsubError()
		destroyQuietly(adapter)
		return false
	}
	o.adapter = adapter
	o.unsubs = []func(){unsubState, unsubError}
	o.family = cand.Family
	o.url = cand.URL
	o.attempt = n
	if controls != nil {
		o.bound = controls
		o.controls.Register(controls)
	}
	o.mu.Unlock()
	return true
}

func (e *execution) adapterError(perr *player.Error) {
	if perr == nil {
		return
	}
	o := e.o
	o.mu.Lock()
	if o.epoch != e.epoch {
		o.mu.Unlock()
		return
	}
	info := playbackInfo(o.url, o.family, o.attempt)
	o.mu.Unlock()

	e.logger.Warn("adapter error",
		slog.String("code", perr.Code),
		slog.String("severity", perr.Severity.String()),
		slog.String("error", perr.Message),
	)
	e.report(perr, info)
}

func (e *execution) report(perr *player.Error, info reporting.PlaybackInfo) {
	if e.o.reporter == nil || !perr.Severity.AtLeast(player.SeverityError) {
		return
	}
	e.o.reporter.Submit(perr, info)
}

func (e *execution) fail(perr *player.Error, lastProbe *probe.Result) *Result {
	res := e.result
	res.Success = false
	res.FinalError = perr
	if res.Classification.NeedsProbe() {
		res.Diagnostics = diagnostics.GenerateWithProbe(e.url, lastProbe, perr.Message)
	}
	if !e.transition(StateFailed, len(res.Attempts)) {
		return e.cancelled()
	}

	e.logger.Warn("playback failed",
		slog.String("code", perr.Code),
		slog.String("error", perr.Message),
		slog.Int("attempts", len(res.Attempts)),
	)

	var family player.Family
	if n := len(res.Attempts); n > 0 {
		family = res.Attempts[n-1].Family
	}
	e.report(perr, playbackInfo(e.url, family, len(res.Attempts)))
	return res
}

func (e *execution) cancelled() *Result {
	res := e.result
	res.Success = false
	res.Adapter = nil
	res.Diagnostics = ""
	res.FinalError = player.NewError(player.CodePipelineCancelled,
		"Playback request was cancelled or superseded", player.SeverityWarning, true).WithURL(e.url)

	// A caller-cancelled execution still owns the orchestrator.
	e.transition(StateFailed, len(res.Attempts))
	return res
}

// transition moves the orchestrator to state and notifies the caller. It
// returns false when the execution has been superseded or destroyed.
func (e *execution) transition(state State, attempt int) bool {
	o := e.o
	o.cbMu.Lock()
	defer o.cbMu.Unlock()

	o.mu.Lock()
	if o.epoch != e.epoch {
		o.mu.Unlock()
		return false
	}
	o.state = state
	if attempt > 0 {
		o.attempt = attempt
	}
	o.mu.Unlock()

	e.logger.Debug("pipeline transition",
		slog.String("state", state.String()),
		slog.Int("attempt", attempt),
	)
	if e.req.OnProgress != nil {
		e.req.OnProgress(state, attempt)
	}
	return true
}

func (e *execution) fallback(from, to player.Family) bool {
	o := e.o
	o.cbMu.Lock()
	defer o.cbMu.Unlock()

	o.mu.Lock()
	current := o.epoch == e.epoch
	o.mu.Unlock()
	if !current {
		return false
	}

	o.metrics.RecordFallback(from.String(), to.String())
	e.logger.Info("falling back to another player",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
	if e.req.OnFallback != nil {
		e.req.OnFallback(from, to)
	}
	return true
}

func (e *execution) stale(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	e.o.mu.Lock()
	defer e.o.mu.Unlock()
	return e.o.epoch != e.epoch
}

func playbackInfo(rawURL string, family player.Family, attempt int) reporting.PlaybackInfo {
	info := reporting.PlaybackInfo{
		URL:          urlutil.Redact(rawURL),
		PlayerType:   family.String(),
		RetryAttempt: attempt,
	}
	if f := codec.DetectFormat(rawURL); f.Known() {
		info.Format = string(f.Container)
	}
	return info
}

func destroyQuietly(adapter player.Adapter) {
	_ = adapter.Destroy(context.Background())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
