// Package version carries the build version, set at link time with
// -ldflags "-X github.com/ndewijer/Dividend-Admin-Backend/internal/version.Version=v1.2.3".
package version

// Version is the application version.
var Version = "dev"

// Commit is the source revision the binary was built from.
var Commit = ""
