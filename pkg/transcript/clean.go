package transcript

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// dashReplacer normalizes the en-dash, including its mis-decoded UTF-8 form,
// in the header line.
var dashReplacer = strings.NewReplacer("â€“", "-", "–", "-")

// quoteFolder removes double quotes and folds curly apostrophes so that
// catchphrase matching ignores quoting.
var quoteFolder = strings.NewReplacer(`"`, "", "“", "", "”", "", "’", "'")

func fold(s string) string {
	return strings.ToLower(quoteFolder.Replace(s))
}

// Cleaner turns raw transcript lines into an [Episode].
//
// A Cleaner is immutable after construction and safe for concurrent use.
type Cleaner struct {
	headerIndex int
	open        string
	close       string
	noise       map[string]struct{}
}

// NewCleaner returns a Cleaner for the given layout. Empty catchphrases and a
// negative header index fall back to the defaults of [DefaultConfig].
func NewCleaner(cfg Config) *Cleaner {
	def := DefaultConfig()
	if cfg.HeaderLineIndex < 0 {
		cfg.HeaderLineIndex = def.HeaderLineIndex
	}
	if strings.TrimSpace(cfg.OpenCatchphrase) == "" {
		cfg.OpenCatchphrase = def.OpenCatchphrase
	}
	if strings.TrimSpace(cfg.CloseCatchphrase) == "" {
		cfg.CloseCatchphrase = def.CloseCatchphrase
	}
	if cfg.NoiseTokens == nil {
		cfg.NoiseTokens = def.NoiseTokens
	}

	noise := make(map[string]struct{}, len(cfg.NoiseTokens))
	for _, tok := range cfg.NoiseTokens {
		noise[tok] = struct{}{}
	}
	return &Cleaner{
		headerIndex: cfg.HeaderLineIndex,
		open:        fold(strings.TrimSpace(cfg.OpenCatchphrase)),
		close:       fold(strings.TrimSpace(cfg.CloseCatchphrase)),
		noise:       noise,
	}
}

// rawLine is a body line with its index in the source file.
type rawLine struct {
	index int
	text  string
}

// Clean parses the lines of one transcript file. name identifies the file in
// returned errors, which are always of type *[Error].
func (c *Cleaner) Clean(name string, lines []string) (*Episode, error) {
	if c.headerIndex >= len(lines) {
		return nil, &Error{
			File:  name,
			Index: -1,
			Err:   fmt.Errorf("%w: file has %d lines, header expected at line %d", ErrEpisodeMetadata, len(lines), c.headerIndex+1),
		}
	}
	number, title, err := parseHeader(lines[c.headerIndex])
	if err != nil {
		return nil, &Error{File: name, Index: c.headerIndex, Raw: lines[c.headerIndex], Err: err}
	}

	body := c.body(lines)

	start := -1
	for i, rl := range body {
		if strings.Contains(fold(rl.text), c.open) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, &Error{
			File:  name,
			Index: -1,
			Err:   fmt.Errorf("%w: opening catchphrase %q", ErrBoundaryNotFound, c.open),
		}
	}
	body = body[start+1:]

	end := -1
	for i := len(body) - 1; i >= 0; i-- {
		if strings.Contains(fold(body[i].text), c.close) {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, &Error{
			File:  name,
			Index: -1,
			Err:   fmt.Errorf("%w: closing catchphrase %q", ErrBoundaryNotFound, c.close),
		}
	}
	body = body[:end]

	ep := &Episode{
		Number: number,
		Title:  title,
		Lines:  make([]Line, 0, len(body)),
	}
	for _, rl := range body {
		line, err := ClassifyLine(rl.text)
		if err != nil {
			return nil, &Error{File: name, Index: rl.index, Raw: rl.text, Err: err}
		}
		ep.Lines = append(ep.Lines, line)
	}
	return ep, nil
}

// Read splits r into lines and cleans them. Both "\n" and "\r\n" line
// endings are accepted.
func (c *Cleaner) Read(name string, r io.Reader) (*Episode, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, fmt.Errorf("transcript: read %s: %w", name, err)
	}
	return c.Clean(name, lines)
}

// body drops the lines before the header, blank lines and noise lines. The
// header line stays; it precedes the opening catchphrase and is discarded
// with it.
func (c *Cleaner) body(lines []string) []rawLine {
	out := make([]rawLine, 0, len(lines)-c.headerIndex)
	for i := c.headerIndex; i < len(lines); i++ {
		text := strings.TrimSpace(lines[i])
		if text == "" {
			continue
		}
		if _, ok := c.noise[text]; ok {
			continue
		}
		out = append(out, rawLine{index: i, text: text})
	}
	return out
}

func parseHeader(line string) (number, title string, err error) {
	line = dashReplacer.Replace(strings.TrimSpace(line))
	left, right, ok := strings.Cut(line, " - ")
	if !ok {
		return "", "", fmt.Errorf("%w: no number/title separator", ErrEpisodeMetadata)
	}
	if i := strings.LastIndex(left, "|"); i >= 0 {
		left = left[i+1:]
	}
	number = strings.TrimSpace(left)
	title = strings.TrimSpace(right)
	if number == "" {
		return "", "", fmt.Errorf("%w: empty episode number", ErrEpisodeMetadata)
	}
	if title == "" {
		return "", "", fmt.Errorf("%w: empty episode title", ErrEpisodeMetadata)
	}
	return number, title, nil
}

// maxLineSize bounds a single transcript line.
const maxLineSize = 1 << 20

// ReadLines splits r into lines without their terminators.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
