package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/aiflavor/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Records are written as an array, comparisons as a single object.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output, ""),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the records as a JSON array. Nil input yields "[]".
func (w *JSONWriter) Write(records []*model.DetectionRecord) (int, error) {
	if records == nil {
		records = []*model.DetectionRecord{}
	}
	return w.writeJSON(records)
}

// WriteComparison outputs the comparison as a JSON object.
func (w *JSONWriter) WriteComparison(c *Comparison) (int, error) {
	return w.writeJSON(c)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps scan output with the tool version and generation time.
type JSONReport struct {
	// Version is the aiflavor version that generated this report.
	Version string `json:"version"`

	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generated_at"`

	// Records holds one entry per scanned URL.
	Records []*model.DetectionRecord `json:"records"`
}

// FullJSONWriter outputs records inside a JSONReport envelope.
type FullJSONWriter struct {
	*JSONWriter

	// version is the aiflavor version string.
	version string

	now func() time.Time
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
		now:        time.Now,
	}
}

// Write outputs the records wrapped with metadata.
func (w *FullJSONWriter) Write(records []*model.DetectionRecord) (int, error) {
	if records == nil {
		records = []*model.DetectionRecord{}
	}
	return w.writeJSON(&JSONReport{
		Version:     w.version,
		GeneratedAt: w.now().UTC(),
		Records:     records,
	})
}
