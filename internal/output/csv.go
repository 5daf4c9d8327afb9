package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// Header names the fixed columns; sub-score columns are numbered after them.
var Header = []string{"sex", "age", "date", "title", "body"}

// Filename returns the output file name for a yado number
func Filename(yadoNo string) string {
	return fmt.Sprintf("kuchikomi_%s.csv", yadoNo)
}

// CSVWriter writes reviews as delimited rows
type CSVWriter struct {
	path   string
	comma  rune
	header bool
}

// NewCSVWriter creates a writer for path using comma as the field delimiter
func NewCSVWriter(path string, comma rune, header bool) *CSVWriter {
	return &CSVWriter{path: path, comma: comma, header: header}
}

// Path returns the file the writer targets
func (w *CSVWriter) Path() string {
	return w.path
}

// WriteReviews replaces the target file with one row per review.
// The rows are written to a temporary file first so a failed write never
// leaves a truncated output behind.
func (w *CSVWriter) WriteReviews(reviews []types.Review) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".kuchikomi-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	writer.Comma = w.comma

	if w.header {
		if err := writer.Write(headerRow(reviews)); err != nil {
			tmp.Close()
			return err
		}
	}
	for _, r := range reviews {
		if err := writer.Write(r.Row()); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), w.path)
}

func headerRow(reviews []types.Review) []string {
	maxScores := 0
	for _, r := range reviews {
		maxScores = max(maxScores, len(r.Scores))
	}
	row := append([]string{}, Header...)
	for i := 1; i <= maxScores; i++ {
		row = append(row, fmt.Sprintf("score_%d", i))
	}
	return row
}

// ReadReviews reads a file written by WriteReviews back into reviews.
// header says whether the first row is a header row.
func ReadReviews(path string, comma rune, header bool) ([]types.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // score count varies per review

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if header && len(records) > 0 {
		records = records[1:]
	}

	reviews := make([]types.Review, 0, len(records))
	for i, rec := range records {
		if len(rec) < len(Header) {
			return nil, fmt.Errorf("%s: row %d has %d fields, want at least %d", path, i+1, len(rec), len(Header))
		}
		reviews = append(reviews, types.Review{
			Sex:    rec[0],
			Age:    rec[1],
			Date:   rec[2],
			Title:  rec[3],
			Body:   rec[4],
			Scores: rec[len(Header):],
		})
	}
	return reviews, nil
}
