package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stamp sets the link-time variables and the embedded build info for one test.
func stamp(t *testing.T, v, commit, date string, bi *debug.BuildInfo) {
	t.Helper()
	oldV, oldC, oldD, oldRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() { Version, Commit, Date, readBuildInfo = oldV, oldC, oldD, oldRead })

	Version, Commit, Date = v, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func vcs(version, revision, built, modified string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/osai-labs/osai", Version: version},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: revision},
			{Key: "vcs.time", Value: built},
			{Key: "vcs.modified", Value: modified},
		},
	}
}

func TestGet_ReleaseStampsWin(t *testing.T) {
	// Given: a release build that also carries VCS stamps
	stamp(t, "v0.4.0", "3f2c1a9b7e10ffff", "2026-05-02T10:00:00Z",
		vcs("v0.3.9", "0000000000000000", "2020-01-01T00:00:00Z", "false"))

	// When: reading the build
	info := Get()

	// Then: ldflags values are kept and the commit is shortened
	assert.Equal(t, "v0.4.0", info.Version)
	assert.Equal(t, "3f2c1a9b7e10", info.Commit)
	assert.Equal(t, "2026-05-02T10:00:00Z", info.Built)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, runtime.Version(), info.Go)
}

func TestGet_FallsBackToEmbeddedBuildInfo(t *testing.T) {
	// Given: a 'go install' binary from a dirty checkout
	stamp(t, "dev", "", "", vcs("v0.4.1", "abcdef0123456789", "2026-06-01T08:30:00Z", "true"))

	// When: reading the build
	info := Get()

	// Then: the module version and VCS stamps fill the gaps
	assert.Equal(t, "v0.4.1", info.Version)
	assert.Equal(t, "abcdef012345", info.Commit)
	assert.Equal(t, "2026-06-01T08:30:00Z", info.Built)
	assert.True(t, info.Modified)
}

func TestGet_DevelBuildStaysDev(t *testing.T) {
	stamp(t, "", "", "", vcs("(devel)", "", "", ""))

	info := Get()

	assert.Equal(t, "dev", info.Version)
	assert.Empty(t, info.Commit)
	assert.False(t, info.Modified)
}

func TestGet_NoBuildInfo(t *testing.T) {
	stamp(t, "dev", "", "", nil)

	assert.Equal(t, "dev", Short())
	assert.Equal(t, "osai dev ("+runtime.Version()+", "+runtime.GOOS+"/"+runtime.GOARCH+")", String())
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "release",
			info: Info{Version: "v0.4.0", Commit: "3f2c1a9b7e10", Built: "2026-05-02T10:00:00Z", Go: "go1.25.5", Platform: "linux/amd64"},
			want: "osai v0.4.0 (3f2c1a9b7e10, 2026-05-02T10:00:00Z, go1.25.5, linux/amd64)",
		},
		{
			name: "dirty checkout",
			info: Info{Version: "dev", Commit: "abcdef012345", Modified: true, Go: "go1.25.5", Platform: "darwin/arm64"},
			want: "osai dev (abcdef012345-dirty, go1.25.5, darwin/arm64)",
		},
		{
			name: "unstamped",
			info: Info{Version: "dev", Go: "go1.25.5", Platform: "windows/amd64"},
			want: "osai dev (go1.25.5, windows/amd64)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}
