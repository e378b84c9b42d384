package report

import (
	"io"

	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
)

// Writer defines the interface for report output.
// Implementations write detection records in various formats.
type Writer interface {
	// Write outputs the report card of each record.
	// Returns the number of bytes written and any error encountered.
	Write(records []*model.DetectionRecord) (int, error)

	// WriteComparison outputs the difference between two records.
	WriteComparison(c *Comparison) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the records to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(records []*model.DetectionRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteComparison outputs the comparison to all configured Writers.
func (m *MultiWriter) WriteComparison(c *Comparison) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteComparison(c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
	lang   i18n.Language
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer, lang i18n.Language) baseWriter {
	if lang == "" {
		lang = i18n.Default
	}
	return baseWriter{output: output, lang: lang}
}

// label returns the display label of a record: its title, or the URL when
// the page had none.
func label(r *model.DetectionRecord) string {
	if r.Title != "" {
		return Truncate(r.Title, MaxTitleLength)
	}
	return Truncate(r.URL, MaxURLLength)
}

// timestampLayout is how detection times are shown in reports.
const timestampLayout = "2006-01-02 15:04:05 MST"
