package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
)

// SimpleWriter outputs human-readable report cards for terminal display.
//
// Cards are framed with a rounded border. With color enabled, the score is
// painted in its tier color; lipgloss drops the styling when the output is
// not a terminal.
type SimpleWriter struct {
	baseWriter

	// color enables foreground colors and bold text.
	color bool

	// compact prints one line per record instead of full cards.
	compact bool

	// verbose adds feature descriptions and collection metadata.
	verbose bool

	renderer *lipgloss.Renderer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithColor enables tier colors.
func WithColor(color bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.color = color
	}
}

// WithCompact prints one line per record.
func WithCompact(compact bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.compact = compact
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, lang i18n.Language, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output, lang),
		renderer:   lipgloss.NewRenderer(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// style returns a style with fg applied when colors are enabled.
func (w *SimpleWriter) style(fg string, bold bool) lipgloss.Style {
	s := w.renderer.NewStyle()
	if !w.color {
		return s
	}
	if fg != "" {
		s = s.Foreground(lipgloss.Color(fg))
	}
	return s.Bold(bold)
}

// Write outputs a card per record, or a line per record in compact mode.
func (w *SimpleWriter) Write(records []*model.DetectionRecord) (int, error) {
	var sb strings.Builder

	if len(records) == 0 {
		sb.WriteString(w.lang.T(i18n.ReportNoRecords))
		sb.WriteString("\n")
		return io.WriteString(w.output, sb.String())
	}

	for i, r := range records {
		if w.compact {
			w.writeLine(&sb, r)
			continue
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		w.writeCard(&sb, r)
	}
	return io.WriteString(w.output, sb.String())
}

// writeLine writes the compact form: id, score, time and label.
func (w *SimpleWriter) writeLine(sb *strings.Builder, r *model.DetectionRecord) {
	score := w.style(TierFor(r.Score).Color(), false).Render(fmt.Sprintf("%3d", r.Score))
	status := ""
	if r.Failed {
		status = " [" + w.lang.T(i18n.ReportFailed) + "]"
	}
	fmt.Fprintf(sb, "%-26s %s  %s  %s%s\n",
		r.ID, score, r.Timestamp.Format("2006-01-02 15:04"), label(r), status)
}

// writeCard writes the framed summary followed by features and details.
func (w *SimpleWriter) writeCard(sb *strings.Builder, r *model.DetectionRecord) {
	tier := TierFor(r.Score)
	title := w.style("", true).Render(w.lang.T(i18n.ReportTitle))
	score := w.style(tier.Color(), true).Render(fmt.Sprintf("%d/100", r.Score))

	lines := []string{
		title,
		"",
		fmt.Sprintf("%s: %s (%s)", w.lang.T(i18n.ReportScore), score, tier.Label(w.lang)),
		fmt.Sprintf("%s: %s", w.lang.T(i18n.ReportURL), Truncate(r.URL, MaxURLLength)),
	}
	if r.Title != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", w.lang.T(i18n.ReportPageTitle), Truncate(r.Title, MaxTitleLength)))
	}
	lines = append(lines, fmt.Sprintf("%s: %s", w.lang.T(i18n.ReportTime), r.Timestamp.Format(timestampLayout)))
	if r.ID != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", w.lang.T(i18n.ReportID), r.ID))
	}
	if r.Failed {
		lines = append(lines, w.style(ColorLow, true).Render(w.lang.T(i18n.ReportFailed)))
	}

	box := w.renderer.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if w.color {
		box = box.BorderForeground(lipgloss.Color(tier.Color()))
	}
	sb.WriteString(box.Render(strings.Join(lines, "\n")))
	sb.WriteString("\n")

	if len(r.Features) > 0 {
		sb.WriteString("\n")
		sb.WriteString(w.style("", true).Render(w.lang.T(i18n.ReportFeatures)))
		sb.WriteString("\n")
		for _, f := range r.Features {
			w.writeFeature(sb, f)
		}
	}

	if r.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(w.style("", true).Render(w.lang.T(i18n.ReportDetails)))
		sb.WriteString("\n")
		for line := range strings.SplitSeq(r.Details, "\n") {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if w.verbose {
		m := r.Metadata
		fmt.Fprintf(sb, "\n  collector=%s elements=%d load_time=%s viewport=%dx%d lang=%s\n",
			m.Collector, m.ElementCount, m.LoadTime, m.Viewport.Width, m.Viewport.Height, m.Language)
	}
}

// writeFeature writes one feature row.
func (w *SimpleWriter) writeFeature(sb *strings.Builder, f model.Feature) {
	mark := "[ ]"
	if f.Detected {
		mark = w.style(ColorHigh, false).Render("[x]")
	}
	fmt.Fprintf(sb, "  %s %s (%s) %.1f\n", mark, f.Name, w.lang.Confidence(f.Confidence), f.Score)
	if w.verbose && f.Description != "" {
		fmt.Fprintf(sb, "      %s\n", f.Description)
	}
}

// WriteComparison outputs the score and feature changes between two records.
func (w *SimpleWriter) WriteComparison(c *Comparison) (int, error) {
	var sb strings.Builder

	sb.WriteString(w.style("", true).Render(w.lang.T(i18n.CompareTitle)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s: %s\n", w.lang.T(i18n.ReportURL), Truncate(c.After.URL, MaxURLLength))
	fmt.Fprintf(&sb, "%s: %d (%s)\n", w.lang.T(i18n.CompareBefore), c.Before.Score, c.Before.Timestamp.Format(timestampLayout))
	fmt.Fprintf(&sb, "%s: %d (%s)\n", w.lang.T(i18n.CompareAfter), c.After.Score, c.After.Timestamp.Format(timestampLayout))
	fmt.Fprintf(&sb, "%s: %s\n\n", w.lang.T(i18n.CompareDelta), w.delta(float64(c.ScoreDelta), "%+.0f"))

	for _, f := range c.Features {
		fmt.Fprintf(&sb, "  %-28s %5.1f -> %5.1f  %s\n", f.Name, f.Before, f.After, w.delta(f.Delta, "%+.1f"))
	}
	sb.WriteString("\n")
	if c.DigestChanged {
		sb.WriteString(w.lang.T(i18n.ComparePageDiff))
	} else {
		sb.WriteString(w.lang.T(i18n.ComparePageSame))
	}
	sb.WriteString("\n")
	return io.WriteString(w.output, sb.String())
}

// delta formats a change, green when the AI flavor went down and red when
// it went up.
func (w *SimpleWriter) delta(d float64, format string) string {
	text := fmt.Sprintf(format, d)
	switch {
	case d > 0:
		return w.style(ColorLow, false).Render(text)
	case d < 0:
		return w.style(ColorHigh, false).Render(text)
	default:
		return text
	}
}
