package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoActiveSession is returned when a control command arrives while no
// adapter is registered.
var ErrNoActiveSession = errors.New("no active playback session")

// Controls is the imperative surface the voice-command dispatcher drives.
// Only the currently bound adapter registers one.
type Controls interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	SeekForward(ctx context.Context, d time.Duration) error
	SeekBackward(ctx context.Context, d time.Duration) error
	SeekTo(ctx context.Context, position time.Duration) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	SetPlaybackRate(ctx context.Context, rate float64) error
	CurrentTime(ctx context.Context) (time.Duration, error)
	Duration(ctx context.Context) (time.Duration, error)
	PlayerState(ctx context.Context) (string, error)
}

// ControlRegistry holds at most one active Controls. It is injected into
// both the orchestrator (the single writer) and the voice dispatcher.
type ControlRegistry struct {
	mu     sync.RWMutex
	active Controls
}

// NewControlRegistry creates an empty registry.
func NewControlRegistry() *ControlRegistry {
	return &ControlRegistry{}
}

// Register makes c the active controls, replacing any previous entry.
func (r *ControlRegistry) Register(c Controls) {
	r.mu.Lock()
	r.active = c
	r.mu.Unlock()
}

// Unregister clears the slot only if c is the active entry, so a late
// unregister from a replaced session cannot evict its successor.
// It reports whether the slot was cleared.
func (r *ControlRegistry) Unregister(c Controls) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil || r.active != c {
		return false
	}
	r.active = nil
	return true
}

// Clear empties the slot unconditionally.
func (r *ControlRegistry) Clear() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
}

// Active returns the registered controls, if any.
func (r *ControlRegistry) Active() (Controls, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.active != nil
}

// IsReady reports whether a session is registered.
func (r *ControlRegistry) IsReady() bool {
	_, ok := r.Active()
	return ok
}

// Do runs fn against the active controls or returns ErrNoActiveSession.
func (r *ControlRegistry) Do(fn func(Controls) error) error {
	c, ok := r.Active()
	if !ok {
		return ErrNoActiveSession
	}
	return fn(c)
}
