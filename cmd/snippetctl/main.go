// Package main provides the entry point for snippetctl.
package main

import (
	"fmt"
	"os"

	"github.com/sakif/snippets/internal/cli/command"
)

func main() {
	app := command.App(os.Stdout)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
