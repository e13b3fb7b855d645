package cli

import "fmt"

// FormatScore formats a similarity score with three decimals.
func FormatScore(score float32) string {
	return fmt.Sprintf("%.3f", score)
}

// FormatSpan formats a start/end timestamp pair. Missing ends are shown
// as "?"; when both are missing the result is empty.
func FormatSpan(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	if start == "" {
		start = "?"
	}
	if end == "" {
		end = "?"
	}
	return start + " – " + end
}
