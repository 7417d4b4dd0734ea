package reporting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/vidroute/internal/config"
	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/player"
)

// Delivery outcomes recorded in metrics.
const (
	OutcomeSent     = "sent"
	OutcomeFailed   = "failed"
	OutcomeDropped  = "dropped"
	OutcomeFiltered = "filtered"
)

// Forwarder queues error reports and delivers them on a single background
// worker, rate limited. Only error and fatal severities are forwarded.
type Forwarder struct {
	sink    Sink
	device  DeviceInfo
	limiter *rate.Limiter
	timeout time.Duration
	drain   time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	queue  chan Report
	closed bool

	stop      context.CancelFunc
	stopCtx   context.Context
	done      chan struct{}
	closeOnce sync.Once
}

// NewForwarder creates a forwarder and starts its worker. Close must be
// called to release it.
func NewForwarder(cfg config.ReportingConfig, sink Sink, device DeviceInfo, logger *slog.Logger, metrics *observability.Metrics) *Forwarder {
	if logger == nil {
		logger = observability.Discard()
	}
	if sink == nil {
		sink = NopSink{}
	}
	defaults := config.Default().Reporting
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaults.RatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.DrainPeriod <= 0 {
		cfg.DrainPeriod = defaults.DrainPeriod
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Forwarder{
		sink:    sink,
		device:  device,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		timeout: cfg.Timeout,
		drain:   cfg.DrainPeriod,
		logger:  observability.WithComponent(logger, "reporting"),
		metrics: metrics,
		queue:   make(chan Report, cfg.QueueSize),
		stop:    cancel,
		stopCtx: ctx,
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

// Submit enqueues perr for delivery. It never blocks and reports whether the
// error was queued.
func (f *Forwarder) Submit(perr *player.Error, playback PlaybackInfo) bool {
	if perr == nil {
		return false
	}
	if !perr.Severity.AtLeast(player.SeverityError) {
		f.metrics.RecordReport(OutcomeFiltered)
		return false
	}

	report := NewReport(perr, f.device, playback)

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		f.metrics.RecordReport(OutcomeDropped)
		return false
	}
	select {
	case f.queue <- report:
		return true
	default:
		f.metrics.RecordReport(OutcomeDropped)
		f.logger.Warn("error report queue full, dropping report",
			slog.String("code", perr.Code),
			slog.Int("capacity", cap(f.queue)),
		)
		return false
	}
}

// Close stops accepting reports and waits for queued ones to be delivered,
// for at most the drain period or until ctx is done. Reports still queued
// after that are dropped.
func (f *Forwarder) Close(ctx context.Context) error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		close(f.queue)
		f.mu.Unlock()
	})

	timer := time.NewTimer(f.drain)
	defer timer.Stop()

	select {
	case <-f.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	f.stop()
	<-f.done
	return ctx.Err()
}

func (f *Forwarder) run() {
	defer close(f.done)

	for report := range f.queue {
		if f.stopCtx.Err() != nil {
			f.metrics.RecordReport(OutcomeDropped)
			continue
		}
		if err := f.limiter.Wait(f.stopCtx); err != nil {
			f.metrics.RecordReport(OutcomeDropped)
			continue
		}
		f.deliver(report)
	}
}

func (f *Forwarder) deliver(report Report) {
	ctx, cancel := context.WithTimeout(f.stopCtx, f.timeout)
	defer cancel()

	resp, err := f.sink.Send(ctx, report)
	if err != nil || !resp.Success {
		f.metrics.RecordReport(OutcomeFailed)
		attrs := []any{
			slog.String("code", report.Error.Code),
			slog.String("message", resp.Message),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		f.logger.Warn("error report not accepted", attrs...)
		return
	}

	f.metrics.RecordReport(OutcomeSent)
	f.logger.Debug("error report sent",
		slog.String("code", report.Error.Code),
		slog.String("report_id", resp.ReportID),
	)
}
