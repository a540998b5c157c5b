// Package version exposes the build metadata stamped into the binary.
package version

import "runtime/debug"

// Build metadata, overridable at link time:
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/sensorhub/pkg/version.Version=v1.2.3"
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the VCS revision the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// InitBinaryVersion fills unstamped fields from the embedded build info, so
// plain `go build` and `go install` binaries still report something useful.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	if Commit != "none" {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			Commit = setting.Value

			return
		}
	}
}
