// Package main provides the entry point for the orgsync CLI tool.
package main

import "github.com/oppnadata/orgsync/cmd/orgsync/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
