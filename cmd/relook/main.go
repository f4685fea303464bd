// Package main is the single-binary entrypoint for RELOOK.
package main

import "github.com/relook-app/relook/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
