// Package main is the cellfmt command.
package main

import (
	"os"

	"github.com/cellkit/cellfmt/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
