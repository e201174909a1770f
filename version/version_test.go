package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	info := Info{CommitHash: "0123456789abcdef", BuildTime: "2024-03-01", Version: "dev"}
	assert.Equal(t, "deltaconsumer dev (commit 0123456789abcdef, built 2024-03-01)", info.String())
	assert.Equal(t, "0123456", info.Short())
	assert.Equal(t, "deltaconsumer/dev (0123456)", info.UserAgent())

	info.Version = "v1.2.0"
	assert.Equal(t, "deltaconsumer v1.2.0 (commit 0123456789abcdef, built 2024-03-01)", info.String())

	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
}

func TestWithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abcdef0123456789"},
			{Key: "vcs.time", Value: "2024-03-01T10:00:00Z"},
		},
	}

	got := Info{CommitHash: "dev", BuildTime: "unknown", Version: "dev"}.withBuildInfo(bi)
	assert.Equal(t, "v0.3.1", got.Version)
	assert.Equal(t, "abcdef0123456789", got.CommitHash)
	assert.Equal(t, "2024-03-01T10:00:00Z", got.BuildTime)

	// link-time values win
	got = Info{CommitHash: "1111111", BuildTime: "yesterday", Version: "v1.0.0"}.withBuildInfo(bi)
	assert.Equal(t, Info{CommitHash: "1111111", BuildTime: "yesterday", Version: "v1.0.0"}, got)

	// a workspace build reports (devel)
	bi.Main.Version = "(devel)"
	got = Info{CommitHash: "dev", BuildTime: "unknown", Version: "dev"}.withBuildInfo(bi)
	assert.Equal(t, "dev", got.Version)
}
