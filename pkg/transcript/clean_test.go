package transcript_test

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/transcript"
)

// header returns the 12 noise lines that precede the header line.
func header() []string {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "nav"
	}
	return lines
}

func transcriptLines(body ...string) []string {
	lines := header()
	lines = append(lines, "Office Ladies | Episode 7 – The Fight")
	return append(lines, body...)
}

func TestCleanFixture(t *testing.T) {
	f, err := os.Open("testdata/episode5")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ep, err := transcript.NewCleaner(transcript.DefaultConfig()).Read("episode5", f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ep.Number != "Episode 5" {
		t.Errorf("Number = %q, want %q", ep.Number, "Episode 5")
	}
	if ep.Title != "Basketball" {
		t.Errorf("Title = %q, want %q", ep.Title, "Basketball")
	}

	want := []transcript.Line{
		{Speaker: "Jenna", Timestamp: "00:00:31", Text: "This week we are breaking down Basketball."},
		{Speaker: "Angela", Timestamp: "00:00:40", Text: "It was written by Greg Daniels."},
		{Speaker: "Jenna", Timestamp: "00:01:02", Text: "So many fun facts."},
		{Speaker: "Angela", Timestamp: "00:01:15", Text: "Thank you for listening to Office Ladies is something we say a lot."},
		{Speaker: "Jenna", Timestamp: "00:01:30", Text: "That was the warehouse game."},
		{Speaker: "Angela", Timestamp: "00:01:45", Text: "Okay, see you next week."},
	}
	if !reflect.DeepEqual(ep.Lines, want) {
		t.Errorf("Lines =\n%+v\nwant\n%+v", ep.Lines, want)
	}
}

func TestCleanUsesLastClosingCatchphrase(t *testing.T) {
	lines := transcriptLines(
		"Jenna: We're the Office Ladies!",
		"Jenna: one",
		"Angela: thank you for listening to office ladies, we always say",
		"Jenna: two",
		"Angela: three",
		"Jenna: Thank you for listening to Office Ladies.",
		"Angela: outro",
	)
	ep, err := transcript.NewCleaner(transcript.DefaultConfig()).Clean("ep", lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	var texts []string
	for _, l := range ep.Lines {
		texts = append(texts, l.Text)
	}
	want := []string{"one", "thank you for listening to office ladies, we always say", "two", "three"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("texts = %q, want %q", texts, want)
	}
}

func TestCleanCatchphraseQuoteAndCaseInsensitive(t *testing.T) {
	lines := transcriptLines(
		"Jenna: before",
		`Angela: “WE'RE THE "OFFICE" LADIES”`,
		"Jenna: kept",
		"Angela: Thank you for listening to “Office Ladies”",
	)
	ep, err := transcript.NewCleaner(transcript.DefaultConfig()).Clean("ep", lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(ep.Lines) != 1 || ep.Lines[0].Text != "kept" {
		t.Errorf("Lines = %+v, want single line \"kept\"", ep.Lines)
	}
}

func TestCleanDropsNoise(t *testing.T) {
	lines := transcriptLines(
		"Jenna: We're the Office Ladies",
		"",
		"COMMERCIAL BREAK",
		"  BREAK  ",
		"-",
		"Angela: kept",
		"BREAKING: not noise",
		"Thank you for listening to Office Ladies",
	)
	ep, err := transcript.NewCleaner(transcript.DefaultConfig()).Clean("ep", lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	want := []transcript.Line{
		{Speaker: "Angela", Text: "kept"},
		{Speaker: "BREAKING", Text: "not noise"},
	}
	if !reflect.DeepEqual(ep.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", ep.Lines, want)
	}
}

func TestCleanHeader(t *testing.T) {
	tests := []struct {
		line   string
		number string
		title  string
	}{
		{"Office Ladies | Episode 7 – The Fight", "Episode 7", "The Fight"},
		{"Office Ladies | Episode 7 â€“ The Fight", "Episode 7", "The Fight"},
		{"A | B | Episode 12 - Hot Girl - Part 2", "Episode 12", "Hot Girl - Part 2"},
		{"Episode 3 - Health Care", "Episode 3", "Health Care"},
	}
	for _, tt := range tests {
		lines := append(header(), tt.line, "We're the Office Ladies", "Jenna: x", "Thank you for listening to Office Ladies")
		ep, err := transcript.NewCleaner(transcript.DefaultConfig()).Clean("ep", lines)
		if err != nil {
			t.Errorf("Clean(%q): %v", tt.line, err)
			continue
		}
		if ep.Number != tt.number || ep.Title != tt.title {
			t.Errorf("Clean(%q) = (%q, %q), want (%q, %q)", tt.line, ep.Number, ep.Title, tt.number, tt.title)
		}
	}
}

func TestCleanErrors(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		want      error
		wantIndex int
	}{
		{
			name:      "too short",
			lines:     header(),
			want:      transcript.ErrEpisodeMetadata,
			wantIndex: -1,
		},
		{
			name:      "header without separator",
			lines:     append(header(), "Office Ladies | Episode 7", "We're the Office Ladies"),
			want:      transcript.ErrEpisodeMetadata,
			wantIndex: 12,
		},
		{
			name:      "header empty title",
			lines:     append(header(), "Office Ladies | Episode 7 - "),
			want:      transcript.ErrEpisodeMetadata,
			wantIndex: 12,
		},
		{
			name:      "no opening",
			lines:     transcriptLines("Jenna: hi", "Thank you for listening to Office Ladies"),
			want:      transcript.ErrBoundaryNotFound,
			wantIndex: -1,
		},
		{
			name:      "closing only before opening",
			lines:     transcriptLines("Thank you for listening to Office Ladies", "We're the Office Ladies", "Jenna: hi"),
			want:      transcript.ErrBoundaryNotFound,
			wantIndex: -1,
		},
		{
			name:      "malformed body line",
			lines:     transcriptLines("We're the Office Ladies", "Jenna: ok", "", "no speaker here", "Thank you for listening to Office Ladies"),
			want:      transcript.ErrMalformedLine,
			wantIndex: 16,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transcript.NewCleaner(transcript.DefaultConfig()).Clean("episode7", tt.lines)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var terr *transcript.Error
			if !errors.As(err, &terr) {
				t.Fatalf("error %T is not *transcript.Error", err)
			}
			if terr.File != "episode7" {
				t.Errorf("File = %q, want %q", terr.File, "episode7")
			}
			if terr.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", terr.Index, tt.wantIndex)
			}
			if !strings.HasPrefix(err.Error(), "episode7") {
				t.Errorf("message %q does not start with the file name", err.Error())
			}
		})
	}
}

func TestCleanMalformedLineMessage(t *testing.T) {
	lines := transcriptLines("We're the Office Ladies", "oops", "Thank you for listening to Office Ladies")
	_, err := transcript.NewCleaner(transcript.DefaultConfig()).Clean("episode7", lines)
	if err == nil {
		t.Fatal("expected error")
	}
	const want = `episode7:15: transcript: malformed line: no speaker separator: "oops"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCleanCustomConfig(t *testing.T) {
	cfg := transcript.Config{
		HeaderLineIndex:  0,
		OpenCatchphrase:  "Welcome to the show",
		CloseCatchphrase: "goodnight",
		NoiseTokens:      []string{"[MUSIC]"},
	}
	lines := []string{
		"Show | 42 - Answer",
		"Host: welcome to the show",
		"[MUSIC]",
		"Host [00:00:01] hello",
		"Host: Goodnight!",
	}
	ep, err := transcript.NewCleaner(cfg).Clean("custom", lines)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if ep.Number != "42" || ep.Title != "Answer" {
		t.Errorf("metadata = (%q, %q)", ep.Number, ep.Title)
	}
	want := []transcript.Line{{Speaker: "Host", Timestamp: "00:00:01", Text: "hello"}}
	if !reflect.DeepEqual(ep.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", ep.Lines, want)
	}
}

func TestReadLinesCRLF(t *testing.T) {
	lines, err := transcript.ReadLines(strings.NewReader("a\r\nb\n\r\nc"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "", "c"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("ReadLines = %q, want %q", lines, want)
	}
}
