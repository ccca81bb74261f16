// Package buildinfo holds the server identity reported to clients.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/eternalApril/hanabi/internal/buildinfo.Version=v0.2.0"
package buildinfo

var (
	// Name is the server name reported by HELLO
	Name = "hanabi"

	// Version is the semantic version
	Version = "0.1.0"

	// VersionName is the release code name
	VersionName = "first-light"

	// Commit is the git commit hash
	Commit = "unknown"
)

// String returns a formatted version string
func String() string {
	return Name + " " + Version + " (" + VersionName + ", " + Commit + ")"
}
