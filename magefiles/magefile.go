// Package main provides build targets for the recordkit project using Mage.
//
// Usage:
//
//	mage build             Compile recordkit binary to bin/
//	mage test:all          Run all tests (unit + integration)
//	mage test:unit         Run only unit tests (exclude integration)
//	mage test:integration  Run only integration tests (builds first)
//	mage test:cover        Run unit tests with a coverage profile
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install recordkit to GOPATH/bin
//	mage stats             Print Go LOC and documentation word counts
package main

// Binary names and paths.
const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "recordkit"
	binaryDir  = "bin"
	cmdDir     = "./cmd/recordkit"
	coverFile  = "coverage.out"
)
