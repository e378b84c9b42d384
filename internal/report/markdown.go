package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format for documentation
// and sharing. It is also the source the HTML writer renders from.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, lang i18n.Language) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output, lang),
	}
}

// Write outputs a section per record.
func (w *MarkdownWriter) Write(records []*model.DetectionRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(w.lang.T(i18n.ReportTitle))
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText(w.lang.T(i18n.ReportNoRecords))
	}
	for _, r := range records {
		w.writeRecord(md, r)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeRecord writes the summary table, features, chart and details of one record.
func (w *MarkdownWriter) writeRecord(md *markdown.Markdown, r *model.DetectionRecord) {
	tier := TierFor(r.Score)

	md.H2(escapeInline(label(r)))
	md.PlainText("")

	rows := [][]string{
		{w.lang.T(i18n.ReportScore), fmt.Sprintf("**%d/100** (%s)", r.Score, tier.Label(w.lang))},
		{w.lang.T(i18n.ReportURL), "`" + Truncate(r.URL, MaxURLLength) + "`"},
	}
	if r.Title != "" {
		rows = append(rows, []string{w.lang.T(i18n.ReportPageTitle), escapeCell(Truncate(r.Title, MaxTitleLength))})
	}
	rows = append(rows, []string{w.lang.T(i18n.ReportTime), r.Timestamp.Format(timestampLayout)})
	if r.ID != "" {
		rows = append(rows, []string{w.lang.T(i18n.ReportID), "`" + r.ID + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"", ""},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, r)

	if len(r.Features) > 0 {
		w.writeFeatures(md, r.Features)
		w.writePieChart(md, r.Features)
	}

	if r.Details != "" {
		md.H3(w.lang.T(i18n.ReportDetails))
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, r.Details)
		md.PlainText("")
	}
}

// writeAlert writes a GitHub alert matching the score tier.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r *model.DetectionRecord) {
	if r.Failed {
		md.Caution(w.lang.T(i18n.ReportFailed))
		md.PlainText("")
		return
	}
	tier := TierFor(r.Score)
	switch tier {
	case TierHigh:
		md.Warningf("%s: %d/100", tier.Label(w.lang), r.Score)
	case TierMedium:
		md.Importantf("%s: %d/100", tier.Label(w.lang), r.Score)
	default:
		md.Tipf("%s: %d/100", tier.Label(w.lang), r.Score)
	}
	md.PlainText("")
}

// writeFeatures writes the feature table.
func (w *MarkdownWriter) writeFeatures(md *markdown.Markdown, features []model.Feature) {
	md.H3(w.lang.T(i18n.ReportFeatures))
	md.PlainText("")

	rows := make([][]string, 0, len(features))
	for _, f := range features {
		detected := w.lang.T(i18n.ReportNo)
		if f.Detected {
			detected = "✅ " + w.lang.T(i18n.ReportYes)
		}
		rows = append(rows, []string{
			escapeCell(f.Name),
			detected,
			w.lang.Confidence(f.Confidence),
			strconv.FormatFloat(f.Score, 'f', 1, 64),
			escapeCell(f.Description),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{
			w.lang.T(i18n.ReportFeature),
			w.lang.T(i18n.ReportDetected),
			w.lang.T(i18n.ReportConfidence),
			w.lang.T(i18n.ReportPoints),
			w.lang.T(i18n.ReportDetails),
		},
		Rows: rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the points each feature
// contributed. Nothing is written when no feature scored.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, features []model.Feature) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(w.lang.T(i18n.ReportBreakdown)),
		piechart.WithShowData(true),
	)

	scored := 0
	for _, f := range features {
		points := math.Round(f.Score)
		if points <= 0 {
			continue
		}
		chart.LabelAndIntValue(f.Name, uint64(points))
		scored++
	}
	if scored == 0 {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteComparison outputs the comparison as a table.
func (w *MarkdownWriter) WriteComparison(c *Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(w.lang.T(i18n.CompareTitle))
	md.PlainText("")
	md.PlainTextf("%s: `%s`", w.lang.T(i18n.ReportURL), Truncate(c.After.URL, MaxURLLength))
	md.PlainText("")

	rows := [][]string{{
		"**" + w.lang.T(i18n.ReportScore) + "**",
		strconv.Itoa(c.Before.Score),
		strconv.Itoa(c.After.Score),
		fmt.Sprintf("%+d", c.ScoreDelta),
	}}
	for _, f := range c.Features {
		rows = append(rows, []string{
			escapeCell(f.Name),
			strconv.FormatFloat(f.Before, 'f', 1, 64),
			strconv.FormatFloat(f.After, 'f', 1, 64),
			fmt.Sprintf("%+.1f", f.Delta),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{
			w.lang.T(i18n.ReportFeature),
			w.lang.T(i18n.CompareBefore) + " (" + c.Before.Timestamp.Format("2006-01-02") + ")",
			w.lang.T(i18n.CompareAfter) + " (" + c.After.Timestamp.Format("2006-01-02") + ")",
			w.lang.T(i18n.CompareDelta),
		},
		Rows: rows,
	})
	md.PlainText("")

	if c.DigestChanged {
		md.Note(w.lang.T(i18n.ComparePageDiff))
	} else {
		md.Note(w.lang.T(i18n.ComparePageSame))
	}
	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [aiflavor](https://github.com/nao1215/aiflavor)*")
}

// escapeCell keeps page-controlled text from breaking table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// escapeInline keeps page-controlled text from being read as markup in headings.
func escapeInline(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
