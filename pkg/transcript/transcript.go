// Package transcript turns raw podcast transcript files into ordered,
// speaker-attributed lines.
//
// A transcript file has a fixed layout: a header block whose last line
// carries the episode number and title, a body that opens and closes with
// the show's catchphrases, and dialogue lines in one of three forms:
//
//	Jenna: Welcome back.
//	[00:01:12] Angela Welcome back.
//	Angela [00:01:12] Welcome back.
//
// [ClassifyLine] parses a single line and [Cleaner] parses a whole file
// into an [Episode].
package transcript

// Line is one classified dialogue line.
type Line struct {
	// Speaker is the name of the person talking. Never empty.
	Speaker string `json:"speaker"`

	// Timestamp is the HH:MM:SS timecode carried by the line, or "" when the
	// source line had none (continuations and asides).
	Timestamp string `json:"timestamp,omitempty"`

	// Text is the spoken text with surrounding whitespace removed.
	Text string `json:"text"`
}

// HasTimestamp reports whether the source line carried a timecode.
func (l Line) HasTimestamp() bool {
	return l.Timestamp != ""
}

// Episode is the cleaned body of one transcript file.
type Episode struct {
	Number string `json:"episode_number"`
	Title  string `json:"episode_title"`
	Lines  []Line `json:"lines"`
}

// Config holds the layout constants of the transcript format.
type Config struct {
	// HeaderLineIndex is the zero-based index of the line holding
	// "... | <number> – <title>". Lines before it are dropped.
	HeaderLineIndex int `yaml:"header_line_index"`

	// OpenCatchphrase marks the start of the episode body. The first line
	// containing it (case and quote insensitive) and everything before it
	// are dropped.
	OpenCatchphrase string `yaml:"catchphrase_open"`

	// CloseCatchphrase marks the end of the episode body. The last line
	// containing it and everything after it are dropped.
	CloseCatchphrase string `yaml:"catchphrase_close"`

	// NoiseTokens are whole lines removed before boundary detection.
	NoiseTokens []string `yaml:"noise_tokens"`
}

// Defaults for the Office Ladies transcript layout.
const (
	DefaultHeaderLineIndex  = 12
	DefaultOpenCatchphrase  = "We're the Office Ladies"
	DefaultCloseCatchphrase = "Thank you for listening to Office Ladies"
)

// DefaultNoiseTokens returns the lines dropped by default.
func DefaultNoiseTokens() []string {
	return []string{"COMMERCIAL BREAK", "BREAK", "-"}
}

// DefaultConfig returns the configuration for the Office Ladies layout.
func DefaultConfig() Config {
	return Config{
		HeaderLineIndex:  DefaultHeaderLineIndex,
		OpenCatchphrase:  DefaultOpenCatchphrase,
		CloseCatchphrase: DefaultCloseCatchphrase,
		NoiseTokens:      DefaultNoiseTokens(),
	}
}
