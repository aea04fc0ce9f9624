package groundtruth

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// Columns is the ground-truth CSV schema, in order.
var Columns = []string{"question", "summary_answer", "difficulty", "intent", "filename", "relevant_lines"}

// LoadCSV reads a ground-truth CSV and returns its questions with their
// row indices. A missing or reordered header is a ValidationError.
func LoadCSV(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth %s: %w", path, err)
	}
	defer f.Close()

	questions, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ground truth %s: %w", path, err)
	}
	return questions, nil
}

// ReadCSV parses ground-truth rows from r.
func ReadCSV(r io.Reader) ([]Question, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, Validationf("empty CSV: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, want := range Columns {
		if header[i] != want {
			return nil, Validationf("bad CSV header: column %d is %q, want %q", i+1, header[i], want)
		}
	}

	var questions []Question
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", i+1, err)
		}
		questions = append(questions, Question{
			Index:         i,
			Question:      rec[0],
			SummaryAnswer: rec[1],
			Difficulty:    rec[2],
			Intent:        rec[3],
			Filename:      rec[4],
			RelevantLines: rec[5],
		})
	}
	return questions, nil
}

// SaveCSV writes questions in the ground-truth schema.
func SaveCSV(path string, questions []Question) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, q := range questions {
		rec := []string{q.Question, q.SummaryAnswer, q.Difficulty, q.Intent, q.Filename, q.RelevantLines}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", q.Index, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// DefaultSampleName builds the timestamped filename for a sampled CSV,
// e.g. "ground-truth-sample-25-2025-10-23-12-00.csv".
func DefaultSampleName(n int, now time.Time) string {
	return fmt.Sprintf("ground-truth-sample-%d-%s.csv", n, now.Format("2006-01-02-15-04"))
}
