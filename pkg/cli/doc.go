// Package cli holds the terminal plumbing shared by podsearch commands.
//
// It writes command results as YAML, JSON, raw text or styled cards,
// optionally passing them through a jq expression first:
//
//	cli.Output(results, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    JQ:     ".[0].text",
//	})
package cli
