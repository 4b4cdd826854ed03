// Package version reports the server build string for the health endpoint
// and startup logs. Module builds read it from build info; otherwise the
// -ldflags override or the dev default applies.
package version

import "runtime/debug"

var version = "dev"

// Version returns the build string, preferring module build info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set assigns the exported version when ldflags are not provided (e.g. local dev).
func Set(v string) {
	if v != "" {
		version = v
	}
}
