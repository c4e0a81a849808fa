// Package buildinfo carries the release identifiers stamped by the linker:
//
//	go build -ldflags "-X github.com/m3rciful/mediabot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/mediabot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/mediabot/core/buildinfo.Date=$(date -u +%FT%TZ)" ./cmd/mediabot
package buildinfo

// Unstamped builds report a local development build.
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)
