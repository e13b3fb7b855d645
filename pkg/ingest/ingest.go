// Package ingest turns transcript files into indexed, embedded segments.
//
// An episode is read from a [storage.FileStore], cleaned, split into
// overlapping segments, embedded in one batch and upserted into a
// [vecstore.Index]. Upserts start only after the whole episode has been
// parsed and embedded, so a failing episode leaves the index untouched.
package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/embed"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/segment"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/storage"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/transcript"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/vecstore"
)

// EpisodePrefix is the file name prefix of transcript files.
const EpisodePrefix = "episode"

// DefaultBatchSize is the number of records per Upsert call.
const DefaultBatchSize = 100

var (
	// ErrNotConfigured is returned by Episode when the ingester has no
	// embedder or index.
	ErrNotConfigured = errors.New("ingest: embedder and index are required")

	// ErrVectorCount is returned when the embedder answers with a different
	// number of vectors than segments sent.
	ErrVectorCount = errors.New("ingest: vector count mismatch")
)

// Config wires an Ingester.
type Config struct {
	Source    storage.FileStore
	Cleaner   *transcript.Cleaner
	Segmenter *segment.Segmenter

	// Embedder and Index may be nil for parse-only use.
	Embedder embed.Embedder
	Index    vecstore.Index

	// BatchSize defaults to 100.
	BatchSize int
	Logger    *slog.Logger
}

// Ingester loads episodes into an index.
type Ingester struct {
	src       storage.FileStore
	cleaner   *transcript.Cleaner
	segmenter *segment.Segmenter
	embedder  embed.Embedder
	index     vecstore.Index
	batchSize int
	logger    *slog.Logger
}

// New returns an Ingester. Source, Cleaner and Segmenter are required.
func New(cfg Config) (*Ingester, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("ingest: Config.Source is required")
	case cfg.Cleaner == nil:
		return nil, errors.New("ingest: Config.Cleaner is required")
	case cfg.Segmenter == nil:
		return nil, errors.New("ingest: Config.Segmenter is required")
	}
	in := &Ingester{
		src:       cfg.Source,
		cleaner:   cfg.Cleaner,
		segmenter: cfg.Segmenter,
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}
	if in.batchSize <= 0 {
		in.batchSize = DefaultBatchSize
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	return in, nil
}

// EpisodeReport summarizes one ingested episode.
type EpisodeReport struct {
	Name          string `json:"name" yaml:"name"`
	EpisodeNumber string `json:"episode_number,omitempty" yaml:"episode_number,omitempty"`
	EpisodeTitle  string `json:"episode_title,omitempty" yaml:"episode_title,omitempty"`
	Lines         int    `json:"lines" yaml:"lines"`
	Segments      int    `json:"segments" yaml:"segments"`
	Skipped       int    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Upserted      int    `json:"upserted" yaml:"upserted"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a Run.
type Report struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	Elapsed   string          `json:"elapsed" yaml:"elapsed"`
	Episodes  []EpisodeReport `json:"episodes" yaml:"episodes"`
	Failed    int             `json:"failed" yaml:"failed"`
}

// Parse reads, cleans and splits the named transcript without embedding
// it.
func (in *Ingester) Parse(ctx context.Context, name string) (*transcript.Episode, []segment.Segment, error) {
	rc, err := in.src.Read(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}
	defer rc.Close()

	ep, err := in.cleaner.Read(name, rc)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}
	return ep, in.segmenter.Split(ep), nil
}

// Episode ingests the named transcript. Re-ingesting an episode overwrites
// its records since segment IDs are deterministic. Segments with no text,
// such as one made of a single speaker-only line, are skipped and counted
// in the report.
func (in *Ingester) Episode(ctx context.Context, name string) (EpisodeReport, error) {
	rep := EpisodeReport{Name: name}
	if in.embedder == nil || in.index == nil {
		return rep, ErrNotConfigured
	}

	ep, segs, err := in.Parse(ctx, name)
	if err != nil {
		return rep, err
	}
	rep.EpisodeNumber = ep.Number
	rep.EpisodeTitle = ep.Title
	rep.Lines = len(ep.Lines)
	rep.Segments = len(segs)
	segs = slices.DeleteFunc(segs, func(s segment.Segment) bool {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
		in.logger.Warn("skipping segment without text", "name", name, "id", s.ID)
		rep.Skipped++
		return true
	})
	if len(segs) == 0 {
		in.logger.Warn("episode has no segments", "name", name)
		return rep, nil
	}

	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
	}
	vecs, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return rep, fmt.Errorf("ingest: %s: embed: %w", name, err)
	}
	if len(vecs) != len(segs) {
		return rep, fmt.Errorf("%w: %s: %d segments, %d vectors", ErrVectorCount, name, len(segs), len(vecs))
	}

	records := make([]vecstore.Record, len(segs))
	for i := range segs {
		segs[i].Vector = vecs[i]
		records[i] = vecstore.Record{
			ID:       segs[i].ID,
			Vector:   segs[i].Vector,
			Metadata: segs[i].Metadata(),
		}
	}
	if err := vecstore.ValidateRecords(records, in.embedder.Dimension()); err != nil {
		return rep, fmt.Errorf("ingest: %s: %w", name, err)
	}

	for batch := range slices.Chunk(records, in.batchSize) {
		if err := in.index.Upsert(ctx, batch); err != nil {
			return rep, fmt.Errorf("ingest: %s: upsert: %w", name, err)
		}
		rep.Upserted += len(batch)
	}
	in.logger.Info("episode ingested",
		"name", name,
		"episode", ep.Number,
		"title", ep.Title,
		"lines", rep.Lines,
		"segments", rep.Segments,
		"skipped", rep.Skipped,
	)
	return rep, nil
}

// Run ingests names in order. The first failure stops the run unless
// keepGoing is set, in which case every failure is reported and joined
// into the returned error. The report is returned in both cases.
func (in *Ingester) Run(ctx context.Context, names []string, keepGoing bool) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		Episodes:  make([]EpisodeReport, 0, len(names)),
	}
	logger := in.logger.With("run_id", report.RunID)
	logger.Info("ingest started", "episodes", len(names))

	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rep, err := in.Episode(ctx, name)
		if err != nil {
			rep.Error = err.Error()
			report.Failed++
			errs = append(errs, err)
			logger.Error("episode failed", "name", name, "error", err)
		}
		report.Episodes = append(report.Episodes, rep)
		if err != nil && !keepGoing {
			break
		}
	}
	report.Elapsed = time.Since(start).Round(time.Millisecond).String()
	logger.Info("ingest finished", "episodes", len(report.Episodes), "failed", report.Failed, "elapsed", report.Elapsed)
	return report, errors.Join(errs...)
}

// ListEpisodes returns the transcript names in src ordered by episode
// number, so episode2 sorts before episode10. Names without a numeric
// suffix sort last.
func ListEpisodes(ctx context.Context, src storage.FileStore) ([]string, error) {
	names, err := src.List(ctx, EpisodePrefix)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	names = slices.DeleteFunc(names, func(n string) bool {
		return strings.Contains(n, "/")
	})
	slices.SortStableFunc(names, compareEpisodes)
	return names, nil
}

func compareEpisodes(a, b string) int {
	na, okA := episodeNumber(a)
	nb, okB := episodeNumber(b)
	switch {
	case okA && okB:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func episodeNumber(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, EpisodePrefix))
	return n, err == nil
}
