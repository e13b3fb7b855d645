package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderCards(t *testing.T) {
	s := NewStyles(DefaultTheme)
	out := RenderCards(s, 40, []Card{
		{Title: "5 · Basketball", Meta: []string{"0.912", "", "00:01:00 – 00:02:00"}, Body: "Michael organizes a game against the warehouse."},
		{Title: "12 · The Injury", Body: "Michael burns his foot."},
	})

	for _, want := range []string{"Basketball", "0.912 · 00:01:00 – 00:02:00", "The Injury", "burns his foot"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Errorf("line %d is %d cells wide: %q", i, w, line)
		}
	}
	if strings.Count(out, "╭") != 2 {
		t.Errorf("want 2 cards:\n%s", out)
	}
}

func TestRenderCardsDefaultWidth(t *testing.T) {
	out := RenderCards(NewStyles(DefaultTheme), 0, []Card{{Title: "t"}})
	first := strings.Split(out, "\n")[0]
	if w := lipgloss.Width(first); w != DefaultCardWidth {
		t.Errorf("width = %d, want %d", w, DefaultCardWidth)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"日本語テキスト", 5, "日本…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFormatSpan(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"00:00:01", "00:00:09", "00:00:01 – 00:00:09"},
		{"", "00:00:09", "? – 00:00:09"},
		{"00:00:01", "", "00:00:01 – ?"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := FormatSpan(tt.start, tt.end); got != tt.want {
			t.Errorf("FormatSpan(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
	if got := FormatScore(0.91234); got != "0.912" {
		t.Errorf("FormatScore = %q", got)
	}
}
