// Package headless provides player adapters that bind sources without a
// rendering surface. Loading is a real HTTP fetch through the shared client;
// playback is simulated against a clock so state transitions, controls and
// error propagation behave like a real backend.
package headless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/vidroute/internal/player"
)

// ErrDestroyed is returned by operations on a destroyed adapter.
var ErrDestroyed = errors.New("adapter destroyed")

// Adapter is a headless player.Adapter.
type Adapter struct {
	family player.Family
	source player.Source
	load   LoadResult
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     player.PlaybackState
	playingAt time.Time
	destroyed bool

	stateListeners player.Listeners[player.PlaybackState]
	errorListeners player.Listeners[*player.Error]
}

var _ player.Adapter = (*Adapter)(nil)

func newAdapter(src player.Source, load LoadResult, logger *slog.Logger, now func() time.Time) *Adapter {
	if now == nil {
		now = time.Now
	}
	return &Adapter{
		family: src.Family,
		source: src,
		load:   load,
		logger: logger.With(slog.String("family", src.Family.String())),
		now:    now,
		state:  player.InitialState(),
	}
}

// Family returns the adapter family.
func (a *Adapter) Family() player.Family { return a.family }

// Source returns the source the adapter was bound to.
func (a *Adapter) Source() player.Source { return a.source }

// Load returns the result of the initial load.
func (a *Adapter) Load() LoadResult { return a.load }

// State returns a copy of the current playback state.
func (a *Adapter) State() player.PlaybackState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// SetDuration records the media duration once known.
func (a *Adapter) SetDuration(d time.Duration) {
	_ = a.update(context.Background(), func(s *player.PlaybackState) error {
		s.Duration = max(d, 0)
		return nil
	})
}

func (a *Adapter) Play(ctx context.Context) error {
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.IsPlaying = true
		s.IsPaused = false
		s.IsBuffering = false
		return nil
	})
}

func (a *Adapter) Pause(ctx context.Context) error {
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.IsPlaying = false
		s.IsPaused = true
		return nil
	})
}

func (a *Adapter) Stop(ctx context.Context) error {
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.IsPlaying = false
		s.IsPaused = false
		s.CurrentTime = 0
		return nil
	})
}

// Seek moves the playhead, clamped to [0, Duration] when the duration is known.
func (a *Adapter) Seek(ctx context.Context, position time.Duration) error {
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.CurrentTime = clampPosition(position, s.Duration)
		return nil
	})
}

func (a *Adapter) SetVolume(ctx context.Context, volume float64) error {
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.Volume = player.Clamp01(volume)
		return nil
	})
}

func (a *Adapter) SetMuted(ctx context.Context, muted bool) error {
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.IsMuted = muted
		return nil
	})
}

func (a *Adapter) SetPlaybackRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("playback rate must be positive, got %g", rate)
	}
	return a.update(ctx, func(s *player.PlaybackState) error {
		s.PlaybackRate = rate
		return nil
	})
}

func (a *Adapter) OnStateChange(fn func(player.PlaybackState)) func() {
	return a.stateListeners.Add(fn)
}

func (a *Adapter) OnError(fn func(*player.Error)) func() {
	return a.errorListeners.Add(fn)
}

// ReportError surfaces a runtime playback fault to subscribers, as a real
// surface does when decoding or the network fails mid-play.
func (a *Adapter) ReportError(perr *player.Error) {
	if perr == nil {
		return
	}
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.foldLocked()
	a.state.Error = perr
	if perr.Severity.AtLeast(player.SeverityError) {
		a.state.IsPlaying = false
		a.state.IsBuffering = false
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.logger.Debug("adapter error",
		slog.String("code", perr.Code),
		slog.String("severity", perr.Severity.String()),
	)
	a.errorListeners.Emit(perr)
	a.stateListeners.Emit(snap)
}

// Destroy stops playback and drops every listener. Calling it again is a no-op.
func (a *Adapter) Destroy(_ context.Context) error {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return nil
	}
	a.destroyed = true
	a.state.IsPlaying = false
	a.playingAt = time.Time{}
	a.mu.Unlock()

	a.stateListeners.Clear()
	a.errorListeners.Clear()
	a.logger.Debug("adapter destroyed")
	return nil
}

// Destroyed reports whether Destroy has been called.
func (a *Adapter) Destroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

func (a *Adapter) update(ctx context.Context, fn func(*player.PlaybackState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return ErrDestroyed
	}
	a.foldLocked()
	if err := fn(&a.state); err != nil {
		a.mu.Unlock()
		return err
	}
	if a.state.IsPlaying {
		a.playingAt = a.now()
	} else {
		a.playingAt = time.Time{}
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.stateListeners.Emit(snap)
	return nil
}

// foldLocked moves elapsed play time into CurrentTime.
func (a *Adapter) foldLocked() {
	a.state.CurrentTime = a.positionLocked()
	if !a.playingAt.IsZero() {
		a.playingAt = a.now()
	}
}

func (a *Adapter) positionLocked() time.Duration {
	pos := a.state.CurrentTime
	if a.state.IsPlaying && !a.playingAt.IsZero() {
		elapsed := a.now().Sub(a.playingAt)
		pos += time.Duration(float64(elapsed) * a.state.PlaybackRate)
	}
	return clampPosition(pos, a.state.Duration)
}

func (a *Adapter) snapshotLocked() player.PlaybackState {
	s := a.state
	s.CurrentTime = a.positionLocked()
	return s
}

func clampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}
