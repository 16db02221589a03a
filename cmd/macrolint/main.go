// Package main provides the CLI for the macrolint C and C++ macro linter.
package main

import (
	"os"

	"github.com/leapstack-labs/macrolint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
