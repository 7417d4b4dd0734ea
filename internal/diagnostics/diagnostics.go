// Package diagnostics composes codec and probe verdicts into multi-section
// troubleshooting text for direct-file playback failures.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/vidroute/internal/codec"
	"github.com/jmylchreest/vidroute/internal/probe"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/pkg/format"
)

// MaxURLLength is the number of URL characters shown in the header.
const MaxURLLength = 100

const (
	header         = "Video Playback Diagnostics"
	verdictOK      = "Support: likely supported on this device"
	verdictBad     = "Support: NOT supported on this device"
	issuesTitle    = "Issues:"
	recsTitle      = "Recommendations:"
	errorTitle     = "Error details:"
	fallbackAdvice = "Try opening the video in a browser to confirm it plays"
)

// Generate builds the diagnostic text for rawURL from the URL heuristics
// alone. errText, when non-empty, is appended as raw error detail.
func Generate(rawURL, errText string) string {
	return GenerateWithProbe(rawURL, nil, errText)
}

// GenerateWithProbe builds the diagnostic text and folds in a probe result
// when one is available. Output is deterministic for the same inputs.
func GenerateWithProbe(rawURL string, res *probe.Result, errText string) string {
	info := codec.DetectCodec(rawURL)
	container := codec.DetectFormat(rawURL)

	var issues, recs []string
	if !info.Supported {
		issues = append(issues, info.ErrorMessage)
		recs = appendUnique(recs, info.Recommendation)
	}
	if info.Supported && container.Streaming {
		recs = appendUnique(recs, fmt.Sprintf("%s streams need a network connection for the whole session", container.Name))
	}

	supported := info.Supported
	if res != nil {
		probeIssues, probeRecs := probeFindings(*res)
		issues = append(issues, probeIssues...)
		for _, r := range probeRecs {
			recs = appendUnique(recs, r)
		}
		if !res.IsValid || !res.CanPlay {
			supported = false
		}
	}

	if len(issues) > 0 && len(recs) == 0 {
		recs = append(recs, fallbackAdvice)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	fmt.Fprintf(&b, "URL: %s\n", urlutil.Truncate(urlutil.Redact(rawURL), MaxURLLength))

	if info.Container != "" {
		fmt.Fprintf(&b, "Container: %s\n", info.Container)
	}
	if info.VideoCodec != "" && info.VideoCodec != codec.UnknownCodec {
		fmt.Fprintf(&b, "Video codec: %s\n", info.VideoCodec)
	}
	if info.AudioCodec != "" {
		fmt.Fprintf(&b, "Audio codec: %s\n", info.AudioCodec)
	}

	if supported {
		b.WriteString(verdictOK)
	} else {
		b.WriteString(verdictBad)
	}
	b.WriteString("\n")

	writeList(&b, issuesTitle, issues)
	writeList(&b, recsTitle, recs)

	if errText = strings.TrimSpace(errText); errText != "" {
		b.WriteString("\n")
		b.WriteString(errorTitle)
		b.WriteString("\n")
		b.WriteString(errText)
		b.WriteString("\n")
	}

	return b.String()
}

func probeFindings(res probe.Result) (issues, recs []string) {
	if res.ErrorMessage != "" {
		issues = append(issues, res.ErrorMessage)
	}
	if res.Warning != "" {
		issues = append(issues, res.Warning)
	}

	switch res.Outcome {
	case probe.OutcomeNotFound:
		recs = append(recs, "Check that the URL is correct and the file still exists")
	case probe.OutcomeForbidden:
		recs = append(recs, "Host the file where direct linking is allowed, or use a signed URL")
	case probe.OutcomeWebPage:
		recs = append(recs, "Use the direct link to the video file rather than the page that embeds it")
	case probe.OutcomeTimeout, probe.OutcomeNetwork, probe.OutcomeCircuitOpen:
		recs = append(recs, "Check the network connection and try again")
	case probe.OutcomeHTTPError:
		if res.StatusCode >= 500 {
			recs = append(recs, "The server reported an error; try again later")
		}
	case probe.OutcomeUnplayable:
		recs = append(recs, "Serve the file with a video content type such as video/mp4")
	}

	if res.IsValid {
		if !res.SupportsRange {
			issues = append(issues, "Server does not support range requests; seeking may not work")
			recs = append(recs, "Enable HTTP range requests (Accept-Ranges: bytes) on the server")
		}
		if res.ContentType != "" {
			issues = appendInfo(issues, "Content type: "+res.ContentType, !res.CanPlay)
		}
		if res.ContentLength > 0 {
			issues = appendInfo(issues, "File size: "+format.Bytes(res.ContentLength), false)
		}
	}
	if res.RedirectURL != "" {
		issues = append(issues, "Redirected to: "+urlutil.Truncate(urlutil.Redact(res.RedirectURL), MaxURLLength))
	}
	return issues, recs
}

// appendInfo adds informational lines only alongside real problems.
func appendInfo(issues []string, line string, force bool) []string {
	if force || len(issues) > 0 {
		return append(issues, line)
	}
	return issues
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("  - ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
