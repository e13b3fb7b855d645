package transcript

import (
	"errors"
	"fmt"
)

// Parse failures. Every error returned by this package wraps one of these.
var (
	// ErrMalformedLine is returned when a line fits none of the line layouts.
	ErrMalformedLine = errors.New("transcript: malformed line")

	// ErrEpisodeMetadata is returned when the header line is missing or
	// does not carry an episode number and title.
	ErrEpisodeMetadata = errors.New("transcript: episode metadata not found")

	// ErrBoundaryNotFound is returned when the opening or closing
	// catchphrase does not occur in the body.
	ErrBoundaryNotFound = errors.New("transcript: boundary not found")
)

// Error locates a parse failure inside a transcript file.
type Error struct {
	// File is the transcript name as given to [Cleaner.Clean].
	File string

	// Index is the zero-based line index in the raw file, or -1 when the
	// failure is not tied to a single line.
	Index int

	// Raw is the offending line content, if any.
	Raw string

	Err error
}

func (e *Error) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Index >= 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Index+1)
	}
	if e.Raw != "" {
		return fmt.Sprintf("%s: %v: %q", loc, e.Err, e.Raw)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
