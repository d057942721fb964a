package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is overridden at build time with
// -ldflags "-X github.com/bnema/slotbot/internal/version.Version=...".
var Version = "dev"

// String describes the build: version, VCS revision when the binary was
// built from a checkout, Go version and platform.
func String() string {
	return format(Version, revision(), runtime.Version(), runtime.GOOS+"/"+runtime.GOARCH)
}

func format(version, revision, goVersion, platform string) string {
	if revision == "" {
		return fmt.Sprintf("slotbot %s (%s %s)", version, goVersion, platform)
	}
	return fmt.Sprintf("slotbot %s (commit %s, %s %s)", version, revision, goVersion, platform)
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	var rev string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
