package headless

import (
	"context"
	"time"

	"github.com/jmylchreest/vidroute/internal/player"
)

// YouTubeAdapter is a headless embed player. It exposes imperative controls
// for the voice-command bridge.
type YouTubeAdapter struct {
	*Adapter
}

var (
	_ player.Adapter         = (*YouTubeAdapter)(nil)
	_ player.ControlProvider = (*YouTubeAdapter)(nil)
)

// Controls returns the control surface bound to this adapter.
func (y *YouTubeAdapter) Controls() player.Controls {
	return &youtubeControls{a: y.Adapter}
}

// Player states reported by PlayerState, following the iframe API names.
const (
	StateUnstarted = "unstarted"
	StatePlaying   = "playing"
	StatePaused    = "paused"
	StateBuffering = "buffering"
	StateEnded     = "ended"
	StateDestroyed = "destroyed"
)

type youtubeControls struct {
	a *Adapter
}

func (c *youtubeControls) Play(ctx context.Context) error  { return c.a.Play(ctx) }
func (c *youtubeControls) Pause(ctx context.Context) error { return c.a.Pause(ctx) }
func (c *youtubeControls) Stop(ctx context.Context) error  { return c.a.Stop(ctx) }

func (c *youtubeControls) SeekForward(ctx context.Context, d time.Duration) error {
	return c.a.Seek(ctx, c.a.State().CurrentTime+d)
}

func (c *youtubeControls) SeekBackward(ctx context.Context, d time.Duration) error {
	return c.a.Seek(ctx, c.a.State().CurrentTime-d)
}

func (c *youtubeControls) SeekTo(ctx context.Context, position time.Duration) error {
	return c.a.Seek(ctx, position)
}

func (c *youtubeControls) Mute(ctx context.Context) error   { return c.a.SetMuted(ctx, true) }
func (c *youtubeControls) Unmute(ctx context.Context) error { return c.a.SetMuted(ctx, false) }

func (c *youtubeControls) SetVolume(ctx context.Context, volume float64) error {
	return c.a.SetVolume(ctx, volume)
}

func (c *youtubeControls) SetPlaybackRate(ctx context.Context, rate float64) error {
	return c.a.SetPlaybackRate(ctx, rate)
}

func (c *youtubeControls) CurrentTime(ctx context.Context) (time.Duration, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	return c.a.State().CurrentTime, nil
}

func (c *youtubeControls) Duration(ctx context.Context) (time.Duration, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	return c.a.State().Duration, nil
}

func (c *youtubeControls) PlayerState(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.a.Destroyed() {
		return StateDestroyed, nil
	}
	s := c.a.State()
	switch {
	case s.IsBuffering:
		return StateBuffering, nil
	case s.IsPlaying:
		return StatePlaying, nil
	case s.IsPaused:
		return StatePaused, nil
	case s.Duration > 0 && s.CurrentTime >= s.Duration:
		return StateEnded, nil
	default:
		return StateUnstarted, nil
	}
}

func (c *youtubeControls) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.a.Destroyed() {
		return ErrDestroyed
	}
	return nil
}
