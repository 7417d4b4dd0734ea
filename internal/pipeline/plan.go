package pipeline

import (
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/probe"
	"github.com/jmylchreest/vidroute/internal/source"
	"github.com/jmylchreest/vidroute/internal/youtube"
)

// buildPlan lists the candidates for a classified URL in the order they are
// tried. The last candidate is reused once the others are exhausted.
func buildPlan(cls source.Classification, rawURL string, resolver *youtube.Resolver) []Candidate {
	switch {
	case cls.Type == source.TypeYouTube:
		var plan []Candidate
		if res, ok := resolver.Resolve(rawURL); ok {
			for _, u := range res.Candidates() {
				plan = append(plan, Candidate{Family: player.FamilyYouTube, URL: u})
			}
		}
		return append(plan, Candidate{Family: player.FamilyWebView, URL: rawURL})

	case cls.NeedsProbe():
		return []Candidate{{
			Family:          player.FamilyMP4,
			URL:             rawURL,
			Probe:           true,
			InspectManifest: cls.Type == source.TypeHLS,
		}}

	default:
		return []Candidate{{Family: cls.UsePlayer, URL: rawURL}}
	}
}

// probeError converts a failed probe into a playback error. It returns nil
// for reachable sources, including ones whose content type is only suspect.
func probeError(res probe.Result) *player.Error {
	if res.IsValid {
		return nil
	}

	var perr *player.Error
	switch res.Outcome {
	case probe.OutcomeNotFound:
		perr = player.NewError(player.CodeSourceNotFound, res.ErrorMessage, player.SeverityFatal, false)
	case probe.OutcomeForbidden:
		perr = player.NewError(player.CodeSourceAccessDenied, res.ErrorMessage, player.SeverityError, true)
	case probe.OutcomeWebPage:
		perr = player.NewError(player.CodeSourceNotVideo, res.ErrorMessage, player.SeverityFatal, false)
	case probe.OutcomeInvalidURL:
		perr = player.NewError(player.CodeSourceInvalidURL, res.ErrorMessage, player.SeverityFatal, false)
	case probe.OutcomeTimeout:
		perr = player.NewError(player.CodeSourceTimeout, res.ErrorMessage, player.SeverityError, true)
	case probe.OutcomeNetwork, probe.OutcomeCircuitOpen:
		perr = player.NewError(player.CodeSourceNetworkError, res.ErrorMessage, player.SeverityError, true)
	case probe.OutcomeCancelled:
		perr = player.NewError(player.CodePipelineCancelled, res.ErrorMessage, player.SeverityWarning, true)
	default:
		perr = player.NewError(player.CodeSourceHTTPError, res.ErrorMessage, player.SeverityError, true)
	}
	perr.URL = res.URL
	perr.StatusCode = res.StatusCode
	return perr
}
