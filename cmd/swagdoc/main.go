// Package main provides the swagdoc command.
package main

import (
	"fmt"
	"os"

	"github.com/example/swagdoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "swagdoc: %v\n", err)
		os.Exit(1)
	}
}
