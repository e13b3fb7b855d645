// Package search answers free-text queries against the segment index.
//
// A [Pipeline] embeds the query with the same embedder used at ingestion,
// asks the index for the nearest segments (optionally restricted to one
// episode) and projects each match into a [Result]. [Answer] turns results
// into a language-model reply.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/embed"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/segment"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/vecstore"
)

// DefaultNumResults is used when Options.NumResults is not positive.
const DefaultNumResults = 5

// MaxNumResults caps Options.NumResults.
const MaxNumResults = 100

var (
	// ErrEmptyQuery is returned for a blank query text.
	ErrEmptyQuery = errors.New("search: empty query")

	// ErrTooManyResults is returned when Options.NumResults exceeds
	// MaxNumResults.
	ErrTooManyResults = fmt.Errorf("search: num_results above %d", MaxNumResults)
)

// Options narrows a query.
type Options struct {
	// EpisodeTitle restricts results to one episode by exact title.
	EpisodeTitle string `json:"episode_title,omitempty"`

	// NumResults is the maximum number of results. Defaults to 5, at most
	// MaxNumResults.
	NumResults int `json:"num_results,omitempty"`
}

// Result is one matching segment.
type Result struct {
	EpisodeNumber string  `json:"episode_number" msgpack:"episode_number"`
	EpisodeTitle  string  `json:"episode_title" msgpack:"episode_title"`
	Text          string  `json:"text" msgpack:"text"`
	StartTime     string  `json:"start_time,omitempty" msgpack:"start_time,omitempty"`
	EndTime       string  `json:"end_time,omitempty" msgpack:"end_time,omitempty"`
	Score         float32 `json:"score" msgpack:"score"`
}

// Config wires a Pipeline.
type Config struct {
	// Embedder must be the one the index was built with.
	Embedder embed.Embedder
	Index    vecstore.Index

	// Cache is optional.
	Cache Cache

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Pipeline runs queries. It holds no mutable state and is safe for
// concurrent use when its embedder, index and cache are.
type Pipeline struct {
	embedder embed.Embedder
	index    vecstore.Index
	cache    Cache
	logger   *slog.Logger
}

// New returns a Pipeline. Embedder and Index are required.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Embedder == nil {
		return nil, errors.New("search: Config.Embedder is required")
	}
	if cfg.Index == nil {
		return nil, errors.New("search: Config.Index is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder: cfg.Embedder,
		index:    cfg.Index,
		cache:    cfg.Cache,
		logger:   logger,
	}, nil
}

// Query returns up to opts.NumResults segments ordered by descending
// similarity, as ranked by the index. Index failures match
// vecstore.ErrUnavailable; nothing is retried.
func (p *Pipeline) Query(ctx context.Context, text string, opts Options) ([]Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	switch {
	case opts.NumResults <= 0:
		opts.NumResults = DefaultNumResults
	case opts.NumResults > MaxNumResults:
		return nil, fmt.Errorf("%w: %d", ErrTooManyResults, opts.NumResults)
	}

	var key string
	if p.cache != nil {
		key = CacheKey(text, opts)
		cached, ok, err := p.cache.Get(ctx, key)
		switch {
		case err != nil:
			p.logger.Warn("query cache get failed", "error", err)
		case ok:
			p.logger.Debug("query cache hit", "query", text)
			return cached, nil
		}
	}

	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	q := vecstore.Query{
		Vector:          vec,
		TopK:            opts.NumResults,
		IncludeMetadata: true,
	}
	if opts.EpisodeTitle != "" {
		q.Filter = vecstore.Filter{segment.KeyEpisodeTitle: opts.EpisodeTitle}
	}
	matches, err := p.index.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(matches) > opts.NumResults {
		matches = matches[:opts.NumResults]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Project(m))
	}
	p.logger.Debug("query", "query", text, "episode_title", opts.EpisodeTitle, "results", len(results))

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, results); err != nil {
			p.logger.Warn("query cache set failed", "error", err)
		}
	}
	return results, nil
}

// Project converts an index match into a Result.
func Project(m vecstore.Match) Result {
	s := segment.FromMetadata(m.ID, m.Metadata)
	return Result{
		EpisodeNumber: s.EpisodeNumber,
		EpisodeTitle:  s.EpisodeTitle,
		Text:          s.Text,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Score:         m.Score,
	}
}
