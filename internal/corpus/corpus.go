// Package corpus resolves ground-truth source references ("filename plus
// relevant lines") into numbered excerpts from the document corpus the
// questions were written against.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LineRange is an inclusive 1-based line span.
type LineRange struct {
	Start int
	End   int
}

// ParseLineRange parses the relevant_lines column: "lines 45-67", "line 23",
// or a bare "45-67" / "23". Empty input yields a zero range meaning the
// whole file.
func ParseLineRange(s string) (LineRange, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "lines")
	s = strings.TrimPrefix(s, "line")
	s = strings.TrimSpace(s)
	if s == "" {
		return LineRange{}, nil
	}

	start, end, found := strings.Cut(s, "-")
	a, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return LineRange{}, fmt.Errorf("parse line range %q: %w", s, err)
	}
	b := a
	if found {
		b, err = strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return LineRange{}, fmt.Errorf("parse line range %q: %w", s, err)
		}
	}
	if a < 1 || b < a {
		return LineRange{}, fmt.Errorf("invalid line range %q", s)
	}
	return LineRange{Start: a, End: b}, nil
}

// Corpus serves file excerpts out of a root directory.
type Corpus struct {
	root string
}

// Open returns a corpus rooted at dir.
func Open(dir string) (*Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open corpus: %s is not a directory", dir)
	}
	return &Corpus{root: dir}, nil
}

// Excerpt returns the referenced span of a corpus file with line numbers,
// plus context lines on either side. A zero range returns the whole file.
func (c *Corpus) Excerpt(filename, relevantLines string, context int) (string, error) {
	rng, err := ParseLineRange(relevantLines)
	if err != nil {
		return "", err
	}

	rel := filepath.Clean(filename)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("corpus: reference %q escapes the corpus root", filename)
	}
	data, err := os.ReadFile(filepath.Join(c.root, rel))
	if err != nil {
		return "", fmt.Errorf("corpus: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	start, end := 1, len(lines)
	if rng.Start > 0 {
		start = max(1, rng.Start-context)
		end = min(len(lines), rng.End+context)
		if rng.Start > len(lines) {
			return "", fmt.Errorf("corpus: %s has %d lines, reference starts at %d", filename, len(lines), rng.Start)
		}
	}

	var b strings.Builder
	width := len(strconv.Itoa(end))
	for i := start; i <= end; i++ {
		marker := " "
		if rng.Start > 0 && i >= rng.Start && i <= rng.End {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %*d | %s\n", marker, width, i, lines[i-1])
	}
	return b.String(), nil
}
