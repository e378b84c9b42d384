package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlPage is the document around the rendered report. The %s verbs are,
// in order: language, title, accent color, score badge and body.
const htmlPage = `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", "PingFang SC", sans-serif; margin: 0; background: #f8fafc; color: #1f2937; }
main { max-width: 860px; margin: 2rem auto; background: #fff; border-radius: 12px; border-top: 6px solid %s; padding: 1.5rem 2rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.badge { display: inline-block; font-size: 2.5rem; font-weight: 700; }
table { border-collapse: collapse; width: 100%%; margin: 1rem 0; }
th, td { border: 1px solid #e5e7eb; padding: .4rem .6rem; text-align: left; vertical-align: top; }
pre { background: #f3f4f6; padding: .8rem; overflow-x: auto; white-space: pre-wrap; }
blockquote { border-left: 4px solid #d1d5db; margin: 1rem 0; padding: .2rem 1rem; color: #4b5563; }
</style>
</head>
<body>
<main>
%s
%s
</main>
</body>
</html>
`

// HTMLWriter outputs a standalone HTML page. The page body is the Markdown
// report rendered with goldmark; the accent color follows the tier of the
// first record.
type HTMLWriter struct {
	baseWriter
	markdown goldmark.Markdown
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, lang i18n.Language) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output, lang),
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Write outputs the report card page for the records.
func (w *HTMLWriter) Write(records []*model.DetectionRecord) (int, error) {
	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src, w.lang).Write(records); err != nil {
		return 0, err
	}

	badge := ""
	color := ColorLow
	if len(records) > 0 {
		tier := TierFor(records[0].Score)
		color = tier.Color()
		badge = fmt.Sprintf(`<div class="badge" style="color: %s">%d/100</div>`, color, records[0].Score)
	}
	return w.render(src.Bytes(), color, badge)
}

// WriteComparison outputs the comparison page.
func (w *HTMLWriter) WriteComparison(c *Comparison) (int, error) {
	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src, w.lang).WriteComparison(c); err != nil {
		return 0, err
	}
	return w.render(src.Bytes(), TierFor(c.After.Score).Color(), "")
}

// render converts the Markdown source and writes the full page.
func (w *HTMLWriter) render(src []byte, color, badge string) (int, error) {
	var body bytes.Buffer
	if err := w.markdown.Convert(src, &body); err != nil {
		return 0, fmt.Errorf("failed to render HTML report: %w", err)
	}
	page := fmt.Sprintf(htmlPage,
		html.EscapeString(w.lang.String()),
		html.EscapeString(w.lang.T(i18n.ReportTitle)),
		color,
		badge,
		body.String(),
	)
	return io.WriteString(w.output, page)
}
