package version

import (
	"runtime"
	"runtime/debug"
)

// Build variables set with -ldflags, for example
// -X 'github.com/limitedeportes/panel/pkg/version.Version=v1.2.0'.
var (
	Version    = "dev"
	CommitHash = ""
	BuildDate  = ""
)

// Info describes the running build.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	Go         string `json:"go"`
}

// Get returns the build information. Without ldflags the commit comes from
// the VCS stamp embedded by the Go toolchain.
func Get() Info {
	info := Info{Version: Version, CommitHash: CommitHash, BuildDate: BuildDate, Go: runtime.Version()}
	if info.CommitHash != "" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if len(s.Value) >= 7 {
					info.CommitHash = s.Value[:7]
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}
