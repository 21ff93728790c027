package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"tstrend/models"
)

// CSVWriter exports report rows, one per (section, item), to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	// Write header
	if err := w.Write([]string{
		"section", "rank", "source", "title", "url", "stars", "score", "date",
		"author", "labels", "code_url", "code_stars", "run_id", "generated_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends every item of the report.
func (c *CSVWriter) Write(report *models.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	generated := report.GeneratedAt.Format(time.RFC3339)
	for _, sec := range report.Sections {
		for i, it := range sec.Items {
			codeURL, codeStars := "", ""
			if it.Code != nil {
				codeURL = it.Code.URL
				codeStars = it.Code.Popularity.Display()
			}
			row := []string{
				sec.Name,
				strconv.Itoa(i + 1),
				string(it.Source),
				it.Title,
				it.URL,
				strconv.Itoa(it.Stars),
				strconv.FormatFloat(it.Score, 'f', 1, 64),
				it.Date,
				it.Author,
				strings.Join(it.Labels, ";"),
				codeURL,
				codeStars,
				report.RunID,
				generated,
			}
			if err := c.writer.Write(row); err != nil {
				return fmt.Errorf("csv: write row: %w", err)
			}
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
