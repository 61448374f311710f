// Package main provides the entry point for the osai CLI.
package main

import (
	"os"

	"github.com/osai-labs/osai/cmd/osai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
