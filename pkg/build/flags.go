// SPDX-License-Identifier: MIT

// Package build exposes binary metadata (name, version, commit, build time)
// injected at compile time via -ldflags. During development, when no flags
// are injected, every field falls back to a "dev" placeholder so the binary
// still starts.
package build

// Populated by -ldflags at compile time.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// Flags holds the resolved build metadata for this binary.
type Flags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Info returns the build metadata, substituting development defaults for
// any field the linker did not set.
func Info() Flags {
	return Flags{
		Name:    orDev(buildName, "spectra"),
		Time:    orDev(buildTime, "unknown"),
		Commit:  orDev(buildCommit, "unknown"),
		Version: orDev(buildVersion, "dev"),
	}
}

func orDev(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
