// Package groundtruth loads, validates, samples, and writes the curated
// question set that evaluation runs are scored against.
package groundtruth

import "fmt"

// Question is one curated evaluation fixture: a search-style query with its
// expected answer summary and provenance. Immutable once sampled.
type Question struct {
	Index         int    `json:"index"` // row position in the source CSV
	Question      string `json:"question"`
	SummaryAnswer string `json:"summary_answer"`
	Difficulty    string `json:"difficulty"` // beginner / intermediate / advanced
	Intent        string `json:"intent"`     // text / code
	Filename      string `json:"filename"`
	RelevantLines string `json:"relevant_lines"` // e.g. "lines 45-67" or "line 23"
}

// ValidationError reports invalid input: a malformed CSV, out-of-range
// sample parameters, or a bad forced index. It always fires before any
// model call is made.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError with fmt semantics.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
