// Package main is the entry point for the podsearch CLI.
//
// Usage:
//
//	podsearch [flags] <command> [args]
//
// Commands:
//
//	ingest    - Clean, segment, embed and index transcripts
//	segments  - Show how a transcript is segmented
//	search    - Find the segments closest to a query
//	ask       - Answer a question from the matching segments
//	serve     - Serve the HTTP API
//	config    - Inspect and create the configuration file
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/shubhpawar/office-ladies-podcast-search/cmd/podsearch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
