package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

// timecodeRe matches a bracketed timecode such as "[00:12:34]" and captures
// the bare HH:MM:SS value.
var timecodeRe = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)

// ClassifyLine parses one transcript line into a [Line].
//
// The layouts are tried in this order:
//
//  1. No bracketed timecode anywhere: "Speaker: text". The line is cut at the
//     first ':'.
//  2. Leading timecode: "[HH:MM:SS] Speaker text". The first word after the
//     timecode is the speaker; the remaining words, joined by single spaces,
//     are the text.
//  3. Inline timecode: "Speaker [HH:MM:SS] text". Everything before the
//     first '[' is the speaker, everything after the timecode is the text.
//     Bracketed asides between them are dropped.
//
// The returned error wraps [ErrMalformedLine] when no layout applies or the
// speaker would be empty.
func ClassifyLine(line string) (Line, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Line{}, fmt.Errorf("%w: empty line", ErrMalformedLine)
	}

	loc := timecodeRe.FindStringSubmatchIndex(line)
	switch {
	case loc == nil:
		return classifyPlain(line)
	case loc[0] == 0:
		return classifyLeading(line[loc[2]:loc[3]], line[loc[1]:])
	default:
		speaker, _, _ := strings.Cut(line[:loc[0]], "[")
		return classifyInline(speaker, line[loc[2]:loc[3]], line[loc[1]:])
	}
}

func classifyPlain(line string) (Line, error) {
	speaker, text, ok := strings.Cut(line, ":")
	if !ok {
		return Line{}, fmt.Errorf("%w: no speaker separator", ErrMalformedLine)
	}
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return Line{}, fmt.Errorf("%w: empty speaker", ErrMalformedLine)
	}
	return Line{Speaker: speaker, Text: strings.TrimSpace(text)}, nil
}

func classifyLeading(ts, rest string) (Line, error) {
	words := strings.Fields(rest)
	if len(words) == 0 {
		return Line{}, fmt.Errorf("%w: no speaker after timecode", ErrMalformedLine)
	}
	return Line{
		Speaker:   words[0],
		Timestamp: ts,
		Text:      strings.Join(words[1:], " "),
	}, nil
}

func classifyInline(speaker, ts, text string) (Line, error) {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return Line{}, fmt.Errorf("%w: empty speaker", ErrMalformedLine)
	}
	return Line{
		Speaker:   speaker,
		Timestamp: ts,
		Text:      strings.TrimSpace(text),
	}, nil
}
