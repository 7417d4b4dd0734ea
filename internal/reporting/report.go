// Package reporting forwards playback errors to a remote error-report sink.
// Delivery is fire-and-forget: a failed or dropped report never affects
// playback.
package reporting

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/version"
)

// ErrorInfo is the error section of a report.
type ErrorInfo struct {
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	URL         string    `json:"url,omitempty"`
	Platform    string    `json:"platform,omitempty"`
}

// DeviceInfo identifies the reporting host.
type DeviceInfo struct {
	Platform   string `json:"platform"`
	OSVersion  string `json:"osVersion"`
	AppVersion string `json:"appVersion"`
}

// PlaybackInfo describes what was playing when the error occurred.
type PlaybackInfo struct {
	URL          string `json:"url"`
	Format       string `json:"format,omitempty"`
	PlayerType   string `json:"playerType,omitempty"`
	RetryAttempt int    `json:"retryAttempt,omitempty"`
}

// Report is the payload accepted by the sink.
type Report struct {
	Error        ErrorInfo    `json:"error"`
	DeviceInfo   DeviceInfo   `json:"deviceInfo"`
	PlaybackInfo PlaybackInfo `json:"playbackInfo"`
}

// Response is the sink's reply.
type Response struct {
	Success  bool   `json:"success"`
	ReportID string `json:"reportId,omitempty"`
	Message  string `json:"message"`
}

// NewReport builds a report from a playback error.
func NewReport(perr *player.Error, device DeviceInfo, playback PlaybackInfo) Report {
	info := ErrorInfo{
		Code:        perr.Code,
		Message:     perr.Message,
		Severity:    perr.Severity.String(),
		Recoverable: perr.Recoverable,
		Timestamp:   perr.Timestamp.UTC(),
		URL:         perr.URL,
		Platform:    perr.Platform,
	}
	if info.Timestamp.IsZero() {
		info.Timestamp = time.Now().UTC()
	}
	if playback.URL == "" {
		playback.URL = perr.URL
	}
	return Report{Error: info, DeviceInfo: device, PlaybackInfo: playback}
}

// CollectDeviceInfo reads the host platform and OS version. Lookup failures
// fall back to the Go runtime's view of the platform.
func CollectDeviceInfo(ctx context.Context) DeviceInfo {
	device := DeviceInfo{
		Platform:   runtime.GOOS,
		OSVersion:  "unknown",
		AppVersion: version.GetInfo().Version,
	}

	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil {
		return device
	}
	if info.Platform != "" {
		device.Platform = info.Platform
	} else if info.OS != "" {
		device.Platform = info.OS
	}
	switch {
	case info.PlatformVersion != "":
		device.OSVersion = info.PlatformVersion
	case info.KernelVersion != "":
		device.OSVersion = info.KernelVersion
	}
	device.Platform = strings.ToLower(device.Platform)
	return device
}
