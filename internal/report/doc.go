// Package report renders detection records as report cards.
//
// Writers exist for several output formats:
//   - SimpleWriter: framed text cards for the terminal, styled with lipgloss
//   - JSONWriter and FullJSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with a mermaid chart of the score breakdown
//   - HTMLWriter: a standalone page rendered from the Markdown with goldmark
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
