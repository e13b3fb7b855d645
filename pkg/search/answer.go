package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/llm"
)

// PromptTemplate is the single user message sent for answer synthesis.
// [CONTEXT] and [QUERY] are replaced by BuildPrompt.
const PromptTemplate = "Use the following context to answer the user query. " +
	"If the user query is a question, provide an answer using the context. " +
	"If the user query is a statement or a phrase, provide the best response using the context." +
	"\n\nContext:\n\n[CONTEXT]\n\nQuery: [QUERY]\n\nResponse:"

// BuildContext renders results as "<number> (<title>): <text>" blocks
// separated by blank lines.
func BuildContext(results []Result) string {
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "%s (%s): %s\n\n", r.EpisodeNumber, r.EpisodeTitle, r.Text)
	}
	return sb.String()
}

// BuildPrompt returns the conversation for answering query from results.
func BuildPrompt(query string, results []Result) []llm.Message {
	prompt := strings.NewReplacer(
		"[CONTEXT]", BuildContext(results),
		"[QUERY]", query,
	).Replace(PromptTemplate)
	return []llm.Message{{Role: llm.RoleUser, Content: prompt}}
}

// Answer asks c to answer query using results as context and returns the
// trimmed reply.
func Answer(ctx context.Context, c llm.Completer, query string, results []Result) (string, error) {
	reply, err := c.Complete(ctx, BuildPrompt(query, results))
	if err != nil {
		return "", fmt.Errorf("search: answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
