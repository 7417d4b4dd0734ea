package headless

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/urlutil"
)

// Factory binds sources to headless adapters.
type Factory struct {
	loader *Loader
	logger *slog.Logger
	now    func() time.Time
}

var _ player.Factory = (*Factory)(nil)

// NewFactory creates a factory using loader for every bind.
func NewFactory(loader *Loader, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Factory{
		loader: loader,
		logger: observability.WithComponent(logger, "headless"),
		now:    time.Now,
	}
}

// Create loads src and returns an adapter bound to it. YouTube, webview and
// social sources load as pages under the webview retry policy; mp4 sources
// open once as media.
func (f *Factory) Create(ctx context.Context, src player.Source) (player.Adapter, error) {
	var (
		res LoadResult
		err error
	)

	switch src.Family {
	case player.FamilyYouTube, player.FamilyWebView, player.FamilySocial:
		res, err = f.loader.LoadPage(ctx, src.URL)
	case player.FamilyMP4:
		res, err = f.loader.LoadMedia(ctx, src.URL)
	default:
		return nil, fmt.Errorf("unsupported player family %q", src.Family)
	}
	if err != nil {
		if perr, ok := player.AsError(err); ok && perr.Platform == "" && src.Platform != "" {
			tagged := *perr
			tagged.Platform = src.Platform
			return nil, &tagged
		}
		return nil, err
	}

	f.logger.Debug("source bound",
		slog.String("family", src.Family.String()),
		slog.String("url", urlutil.Redact(src.URL)),
		slog.Int("status", res.StatusCode),
		slog.Int("load_attempts", res.Attempts),
	)

	base := newAdapter(src, res, f.logger, f.now)
	if src.Family == player.FamilyYouTube {
		return &YouTubeAdapter{Adapter: base}, nil
	}
	return base, nil
}
