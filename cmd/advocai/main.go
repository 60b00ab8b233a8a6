// Package main provides the entry point for the advocai CLI.
package main

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/advocai-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
