// Package version holds build-time version stamps for nodefw and nodectl.
package version

// Version and GitCommit are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/kaiser-net/nodefw/internal/version.Version=v1.0.0 \
//	  -X github.com/kaiser-net/nodefw/internal/version.GitCommit=abc1234"
var (
	Version   = "dev"
	GitCommit = "unknown"
)
