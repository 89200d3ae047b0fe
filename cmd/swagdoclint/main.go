// Package main runs the swagdoc directive linter as a standalone vet tool.
package main

import (
	"github.com/example/swagdoc/internal/lint"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
