package version

import "github.com/carlmjohnson/versioninfo"

// Overridden at build time via -ldflags. Keep these lower-case so ldflags
// can set them without exporting internals.
var (
	buildVersion = "dev"
	builtAt      = ""
)

// Info represents the running build metadata.
type Info struct {
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	BuiltAt  string `json:"builtAt,omitempty"`
}

// BuildVersion prefers the ldflags value and falls back to the module
// build info embedded by the Go toolchain.
func BuildVersion() string {
	if buildVersion != "" && buildVersion != "dev" {
		return buildVersion
	}
	return versioninfo.Short()
}

func Get() Info {
	info := Info{
		Version: BuildVersion(),
		BuiltAt: builtAt,
	}
	if versioninfo.Revision != "unknown" {
		info.Revision = versioninfo.Revision
	}
	if info.BuiltAt == "" && !versioninfo.LastCommit.IsZero() {
		info.BuiltAt = versioninfo.LastCommit.UTC().Format("2006-01-02T15:04:05Z")
	}
	return info
}
