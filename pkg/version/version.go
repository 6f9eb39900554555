// Package version carries build-time identity, injected via -ldflags.
package version

// Version is the semantic version of the binary.
var Version = "dev"

// Commit is the Git hash of the source the binary was built from.
var Commit = "<unknown>"

// Date is the build timestamp.
var Date = "<unknown>"

// String renders the full version line.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
