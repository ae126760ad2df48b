// Package main provides the recordkit CLI.
package main

import "github.com/mesh-intelligence/recordkit/internal/cli"

func main() {
	cli.Execute()
}
