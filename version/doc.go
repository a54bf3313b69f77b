// Package version reports build information for the portfolio binary.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/portfolio/version.Version=1.2.0" ./cmd/portfolio
package version
