package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, commit, date string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origDate, origRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, Date, readBuildInfo = origVersion, origCommit, origDate, origRead
	})
	Version, Commit, Date = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGetInfo_Ldflags(t *testing.T) {
	withBuild(t, "1.4.0", "0123456789abcdef", "2026-01-02T03:04:05Z", nil)

	info := GetInfo()
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.Date)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestGetInfo_BuildInfoFallback(t *testing.T) {
	withBuild(t, "dev", "unknown", "unknown", &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "fedcba9876543210"},
			{Key: "vcs.time", Value: "2026-05-06T07:08:09Z"},
		},
	})

	info := GetInfo()
	assert.Equal(t, "0.3.1", info.Version)
	assert.Equal(t, "fedcba9876543210", info.Commit)
	assert.Equal(t, "2026-05-06T07:08:09Z", info.Date)
}

func TestGetInfo_DevelBuildKeepsDev(t *testing.T) {
	withBuild(t, "dev", "unknown", "unknown", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "dev", GetInfo().Version)
}

func TestString(t *testing.T) {
	t.Run("with commit", func(t *testing.T) {
		withBuild(t, "1.0.0", "abcdef0123456789", "2026-01-01", nil)
		s := String()
		assert.Contains(t, s, "vidroute version 1.0.0")
		assert.Contains(t, s, "commit: abcdef01")
	})

	t.Run("without commit", func(t *testing.T) {
		withBuild(t, "1.0.0", "unknown", "unknown", nil)
		s := String()
		assert.Contains(t, s, "vidroute version 1.0.0")
		assert.NotContains(t, s, "commit:")
	})
}

func TestShort(t *testing.T) {
	withBuild(t, "2.1.0", "abcdef0123456789", "unknown", nil)
	assert.Equal(t, "2.1.0 (abcdef01)", Short())

	withBuild(t, "2.1.0", "abc", "unknown", nil)
	assert.Equal(t, "2.1.0", Short())
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "3.0.0", "unknown", "unknown", nil)
	assert.Equal(t, "vidroute/3.0.0", UserAgent())
}
