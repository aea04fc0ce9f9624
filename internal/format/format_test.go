package format

import (
	"strings"
	"testing"
	"time"
)

func TestFmtTokens(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{2_400_000, "2.4M"},
	}
	for _, tt := range tests {
		if got := FmtTokens(tt.in); got != tt.want {
			t.Errorf("FmtTokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFmtUSD(t *testing.T) {
	if got := FmtUSD(0.12345); got != "$0.1234" && got != "$0.1235" {
		t.Errorf("FmtUSD = %q", got)
	}
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{95 * time.Second, "1m 35s"},
	}
	for _, tt := range tests {
		if got := FmtDuration(tt.in); got != tt.want {
			t.Errorf("FmtDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"long", "abcdefghij", 6, "abc..."},
		{"tiny max", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTableRendersMarkdown(t *testing.T) {
	tbl := NewTable(Markdown)
	tbl.Header("Metric", "Value")
	tbl.Row("questions", 25)
	out := tbl.String()
	if !strings.Contains(out, "| Metric | Value |") {
		t.Errorf("unexpected markdown render:\n%s", out)
	}
}

func TestTableRendersASCII(t *testing.T) {
	tbl := NewTable(ASCII)
	tbl.Header("A")
	tbl.Row("x")
	tbl.Footer("total")
	if out := tbl.String(); !strings.Contains(out, "x") || !strings.Contains(out, "total") {
		t.Errorf("unexpected ascii render:\n%s", out)
	}
}
