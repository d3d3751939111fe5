package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const devVersion = "devel"

// Build-time parameters set via -ldflags
var (
	Version   = devVersion
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Full version string
func Full() string {
	return fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit)
}

// Info returns detailed version information
func Info() string {
	return fmt.Sprintf(
		"anonchat %s\nGo: %s\nOS/Arch: %s/%s\nBuilt: %s\nCommit: %s",
		Version,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
		BuildTime,
		GitCommit,
	)
}

// Binaries installed with `go install` carry no -ldflags, but the module
// version is recorded in the build info.
func init() {
	if Version != devVersion {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	mainVersion := info.Main.Version
	if mainVersion == "" || mainVersion == "(devel)" {
		return
	}
	Version = mainVersion
}
