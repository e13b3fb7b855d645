package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/ingest"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/segment"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/storage"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/transcript"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/vecstore"
)

// episodeText renders a transcript page: navigation lines, the header at
// line 12, then body between the catchphrases.
func episodeText(number int, title string, body []string) string {
	var sb strings.Builder
	for i := range transcript.DefaultHeaderLineIndex {
		fmt.Fprintf(&sb, "nav %d\n", i)
	}
	fmt.Fprintf(&sb, "Office Ladies Podcast | Episode %d – %s\n", number, title)
	sb.WriteString("Jenna: We're the Office Ladies!\n")
	for _, l := range body {
		sb.WriteString(l + "\n")
	}
	sb.WriteString("Angela: Thank you for listening to Office Ladies.\n")
	return sb.String()
}

func dialogue(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		speaker := "Jenna"
		if i%2 == 1 {
			speaker = "Angela"
		}
		lines[i] = fmt.Sprintf("[00:%02d:00] %s line %d", i, speaker, i)
	}
	return lines
}

type fakeEmbedder struct {
	dim   int
	drop  int
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("empty input: text %d", i)
		}
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts[:len(texts)-f.drop] {
		v := make([]float32, f.dim)
		v[0] = float32(len(t))
		v[1] = 1
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

// countingIndex records Upsert batch sizes.
type countingIndex struct {
	*vecstore.Memory
	batches []int
}

func (c *countingIndex) Upsert(ctx context.Context, records []vecstore.Record) error {
	c.batches = append(c.batches, len(records))
	return c.Memory.Upsert(ctx, records)
}

type fixture struct {
	ingester *ingest.Ingester
	embedder *fakeEmbedder
	index    *countingIndex
	dir      string
}

func newFixture(t *testing.T, files map[string]string, batchSize int) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	seg, err := segment.New(segment.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		embedder: &fakeEmbedder{dim: 4},
		index:    &countingIndex{Memory: vecstore.NewMemory()},
		dir:      dir,
	}
	f.ingester, err = ingest.New(ingest.Config{
		Source:    src,
		Cleaner:   transcript.NewCleaner(transcript.DefaultConfig()),
		Segmenter: seg,
		Embedder:  f.embedder,
		Index:     f.index,
		BatchSize: batchSize,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.index.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestEpisode(t *testing.T) {
	f := newFixture(t, map[string]string{
		"episode5": episodeText(5, "Basketball", dialogue(20)),
	}, 3)
	ctx := context.Background()

	rep, err := f.ingester.Episode(ctx, "episode5")
	if err != nil {
		t.Fatalf("Episode: %v", err)
	}
	if rep.EpisodeTitle != "Basketball" || rep.Lines != 20 || rep.Segments != 7 || rep.Upserted != 7 {
		t.Errorf("report = %+v", rep)
	}
	if f.embedder.calls != 1 {
		t.Errorf("EmbedBatch calls = %d, want 1", f.embedder.calls)
	}
	if !slices.Equal(f.index.batches, []int{3, 3, 1}) {
		t.Errorf("upsert batches = %v, want [3 3 1]", f.index.batches)
	}
	if got := f.count(t); got != 7 {
		t.Errorf("Count = %d, want 7", got)
	}

	first := segment.ID(rep.EpisodeNumber, 0, 6)
	rec, ok := f.index.Get(first)
	if !ok {
		t.Fatalf("record %q missing", first)
	}
	if rec.Metadata[segment.KeyEpisodeTitle] != "Basketball" {
		t.Errorf("metadata = %v", rec.Metadata)
	}
	if rec.Metadata[segment.KeyStartTime] != "00:00:00" || rec.Metadata[segment.KeyEndTime] != "00:06:00" {
		t.Errorf("times = %v..%v", rec.Metadata[segment.KeyStartTime], rec.Metadata[segment.KeyEndTime])
	}

	// Re-ingesting overwrites by ID.
	if _, err := f.ingester.Episode(ctx, "episode5"); err != nil {
		t.Fatalf("second Episode: %v", err)
	}
	if got := f.count(t); got != 7 {
		t.Errorf("Count after re-ingest = %d, want 7", got)
	}
}

func TestEpisodeSkipsSegmentWithoutText(t *testing.T) {
	// 19 lines put the last start line on the final, speaker-only line.
	body := append(dialogue(18), "[00:18:00] Jenna")
	f := newFixture(t, map[string]string{
		"episode5": episodeText(5, "Basketball", body),
	}, 0)

	rep, err := f.ingester.Episode(context.Background(), "episode5")
	if err != nil {
		t.Fatalf("Episode: %v", err)
	}
	if rep.Lines != 19 || rep.Segments != 7 || rep.Skipped != 1 || rep.Upserted != 6 {
		t.Errorf("report = %+v", rep)
	}
	if _, ok := f.index.Get(segment.ID(rep.EpisodeNumber, 18, 18)); ok {
		t.Error("segment without text was indexed")
	}
	if got := f.count(t); got != 6 {
		t.Errorf("Count = %d, want 6", got)
	}
}

func TestEpisodeParseErrorLeavesIndexUntouched(t *testing.T) {
	body := append(dialogue(4), "no separator here")
	f := newFixture(t, map[string]string{"episode9": episodeText(9, "Hot Girl", body)}, 0)

	_, err := f.ingester.Episode(context.Background(), "episode9")
	if !errors.Is(err, transcript.ErrMalformedLine) {
		t.Fatalf("err = %v, want ErrMalformedLine", err)
	}
	var terr *transcript.Error
	if !errors.As(err, &terr) || terr.File != "episode9" {
		t.Fatalf("err = %#v", err)
	}
	if f.embedder.calls != 0 {
		t.Errorf("embedder called %d times", f.embedder.calls)
	}
	if got := f.count(t); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestEpisodeVectorCountMismatch(t *testing.T) {
	f := newFixture(t, map[string]string{"episode5": episodeText(5, "Basketball", dialogue(10))}, 0)
	f.embedder.drop = 1

	_, err := f.ingester.Episode(context.Background(), "episode5")
	if !errors.Is(err, ingest.ErrVectorCount) {
		t.Fatalf("err = %v, want ErrVectorCount", err)
	}
	if len(f.index.batches) != 0 {
		t.Errorf("upserted %v", f.index.batches)
	}
}

func TestEpisodeMissingFile(t *testing.T) {
	f := newFixture(t, nil, 0)
	_, err := f.ingester.Episode(context.Background(), "episode404")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestEpisodeNotConfigured(t *testing.T) {
	src, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	seg, _ := segment.New(segment.DefaultConfig())
	in, err := ingest.New(ingest.Config{
		Source:    src,
		Cleaner:   transcript.NewCleaner(transcript.DefaultConfig()),
		Segmenter: seg,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := in.Episode(context.Background(), "episode1"); !errors.Is(err, ingest.ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRequiresParsers(t *testing.T) {
	if _, err := ingest.New(ingest.Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParse(t *testing.T) {
	f := newFixture(t, map[string]string{"episode5": episodeText(5, "Basketball", dialogue(8))}, 0)
	ep, segs, err := f.ingester.Parse(context.Background(), "episode5")
	if err != nil {
		t.Fatal(err)
	}
	if len(ep.Lines) != 8 || len(segs) != 3 {
		t.Errorf("lines = %d, segments = %d", len(ep.Lines), len(segs))
	}
	if ep.Lines[1].Speaker != "Angela" || ep.Lines[1].Text != "line 1" {
		t.Errorf("line 1 = %+v", ep.Lines[1])
	}
}

func TestRun(t *testing.T) {
	files := map[string]string{
		"episode1": episodeText(1, "Pilot", dialogue(7)),
		"episode2": "not a transcript\n",
		"episode3": episodeText(3, "Health Care", dialogue(5)),
	}
	ctx := context.Background()
	names := []string{"episode1", "episode2", "episode3"}

	t.Run("stop on error", func(t *testing.T) {
		f := newFixture(t, files, 0)
		report, err := f.ingester.Run(ctx, names, false)
		if err == nil {
			t.Fatal("expected error")
		}
		if len(report.Episodes) != 2 || report.Failed != 1 {
			t.Fatalf("report = %+v", report)
		}
		if report.Episodes[1].Error == "" {
			t.Error("failed episode has no error")
		}
		if _, err := uuid.Parse(report.RunID); err != nil {
			t.Errorf("RunID %q: %v", report.RunID, err)
		}
	})

	t.Run("keep going", func(t *testing.T) {
		f := newFixture(t, files, 0)
		report, err := f.ingester.Run(ctx, names, true)
		if err == nil {
			t.Fatal("expected joined error")
		}
		if len(report.Episodes) != 3 || report.Failed != 1 {
			t.Fatalf("report = %+v", report)
		}
		if report.Episodes[2].Upserted == 0 {
			t.Error("episode3 was not ingested")
		}
	})

	t.Run("all good", func(t *testing.T) {
		f := newFixture(t, files, 0)
		report, err := f.ingester.Run(ctx, []string{"episode1", "episode3"}, false)
		if err != nil {
			t.Fatal(err)
		}
		if report.Failed != 0 || f.count(t) != report.Episodes[0].Upserted+report.Episodes[1].Upserted {
			t.Errorf("report = %+v", report)
		}
	})
}

func TestListEpisodes(t *testing.T) {
	files := map[string]string{}
	for _, n := range []string{"episode10", "episode2", "episode1", "episode_bonus", "README", "notes"} {
		files[n] = ""
	}
	f := newFixture(t, files, 0)
	src, err := storage.NewLocal(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ingest.ListEpisodes(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"episode1", "episode2", "episode10", "episode_bonus"}
	if !slices.Equal(got, want) {
		t.Fatalf("ListEpisodes = %v, want %v", got, want)
	}
}
