// Package buildinfo exposes version metadata stamped at link time, e.g.
// -ldflags "-X itinopt/internal/buildinfo.Version=v1.2.0".
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

// Info returns the stamped values. An empty Commit falls back to the VCS
// revision recorded by the Go toolchain.
func Info() map[string]string {
	out := map[string]string{
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		out["go"] = bi.GoVersion
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && out["commit"] == "" {
				out["commit"] = s.Value
			}
		}
	}
	return out
}
