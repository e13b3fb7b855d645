// Package segment groups transcript lines into overlapping windows that are
// embedded and retrieved as one unit.
package segment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/transcript"
)

// Metadata keys stored with every indexed segment.
const (
	KeyEpisodeTitle  = "episode_title"
	KeyEpisodeNumber = "episode_number"
	KeyStartTime     = "start_time"
	KeyEndTime       = "end_time"
	KeyText          = "text"
)

// ErrInvalidConfig is returned by [New] for a non-positive window or stride.
var ErrInvalidConfig = errors.New("segment: invalid config")

// Config controls the sliding window.
type Config struct {
	// Window is the number of lines added after the start line. A segment
	// spans lines [i, i+Window], clamped to the last line.
	Window int `yaml:"window"`

	// Stride is the distance between consecutive start lines. Consecutive
	// segments share Window-Stride lines.
	Stride int `yaml:"stride"`
}

// DefaultConfig returns Window 6, Stride 3.
func DefaultConfig() Config {
	return Config{Window: 6, Stride: 3}
}

// Validate checks that Window and Stride are at least 1.
func (c Config) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("%w: window %d < 1", ErrInvalidConfig, c.Window)
	}
	if c.Stride < 1 {
		return fmt.Errorf("%w: stride %d < 1", ErrInvalidConfig, c.Stride)
	}
	return nil
}

// Segment is one window of an episode.
type Segment struct {
	ID            string    `json:"id" msgpack:"id"`
	EpisodeNumber string    `json:"episode_number" msgpack:"episode_number"`
	EpisodeTitle  string    `json:"episode_title" msgpack:"episode_title"`
	StartTime     string    `json:"start_time,omitempty" msgpack:"start_time,omitempty"`
	EndTime       string    `json:"end_time,omitempty" msgpack:"end_time,omitempty"`
	Text          string    `json:"text" msgpack:"text"`
	Vector        []float32 `json:"-" msgpack:"-"`
}

// Metadata returns the fields persisted with the segment. Empty times are
// left out of the map rather than stored as empty values.
func (s Segment) Metadata() map[string]any {
	md := map[string]any{
		KeyEpisodeTitle:  s.EpisodeTitle,
		KeyEpisodeNumber: s.EpisodeNumber,
		KeyText:          s.Text,
	}
	if s.StartTime != "" {
		md[KeyStartTime] = s.StartTime
	}
	if s.EndTime != "" {
		md[KeyEndTime] = s.EndTime
	}
	return md
}

// FromMetadata rebuilds a Segment (without vector) from an index record.
// Missing or non-string values become "".
func FromMetadata(id string, md map[string]any) Segment {
	str := func(key string) string {
		s, _ := md[key].(string)
		return s
	}
	return Segment{
		ID:            id,
		EpisodeNumber: str(KeyEpisodeNumber),
		EpisodeTitle:  str(KeyEpisodeTitle),
		StartTime:     str(KeyStartTime),
		EndTime:       str(KeyEndTime),
		Text:          str(KeyText),
	}
}

// ID returns the identifier of the segment spanning lines start..end of the
// given episode. The same inputs always produce the same ID, which makes
// re-ingesting an episode overwrite its previous records.
func ID(episodeNumber string, start, end int) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(episodeNumber, " ", "_"))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(start))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(end))
	return b.String()
}

// Segmenter splits episodes with a fixed [Config].
type Segmenter struct {
	cfg Config
}

// New returns a Segmenter after validating cfg.
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{cfg: cfg}, nil
}

// Config returns the window configuration.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Split returns the segments of ep in order, with no vectors set.
//
// Start lines are 0, Stride, 2*Stride, ... while below len(ep.Lines). Near
// the end several starts may clamp to the same last line; those overlapping
// trailing segments are all kept.
func (s *Segmenter) Split(ep *transcript.Episode) []Segment {
	n := len(ep.Lines)
	if n == 0 {
		return nil
	}
	out := make([]Segment, 0, (n+s.cfg.Stride-1)/s.cfg.Stride)
	texts := make([]string, 0, s.cfg.Window+1)
	for i := 0; i < n; i += s.cfg.Stride {
		end := min(i+s.cfg.Window, n-1)

		texts = texts[:0]
		for _, l := range ep.Lines[i : end+1] {
			texts = append(texts, l.Text)
		}
		out = append(out, Segment{
			ID:            ID(ep.Number, i, end),
			EpisodeNumber: ep.Number,
			EpisodeTitle:  ep.Title,
			StartTime:     ep.Lines[i].Timestamp,
			EndTime:       ep.Lines[end].Timestamp,
			Text:          strings.Join(texts, " "),
		})
	}
	return out
}
