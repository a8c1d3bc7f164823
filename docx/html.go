package docx

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// DebugHTML adds the paragraph style id as a data attribute in the rendered HTML.
var DebugHTML bool

// ReportToHTML parses a report and renders it as HTML.
func ReportToHTML(r io.ReaderAt, size int64) (string, error) {
	m, err := ParseReport(r, size)
	if err != nil {
		return "", err
	}
	return RenderReportHTML(m), nil
}

func renderParagraphHTML(p RenderParagraph) string {
	tag := "p"
	switch {
	case p.Style == "Title":
		tag = "h1"
	case p.IsHeading():
		tag = "h2"
	}
	debugAttr := ""
	if DebugHTML {
		debugAttr = fmt.Sprintf(" data-para-style=\"%s\"", html.EscapeString(p.Style))
	}
	text := html.EscapeString(p.Text)
	if p.Drawings > 0 {
		text += fmt.Sprintf("<em>[%d image(s)]</em>", p.Drawings)
	}
	return fmt.Sprintf("<%s%s>%s</%s>\n", tag, debugAttr, text, tag)
}

func renderTableHTML(t RenderTable) string {
	var b strings.Builder
	b.WriteString("<table style=\"border-collapse:collapse;\">\n")
	for i, row := range t.Rows {
		cellTag := "td"
		if i == 0 {
			cellTag = "th"
		}
		b.WriteString("  <tr>")
		for _, cell := range row {
			text := strings.ReplaceAll(html.EscapeString(cell), "\n", "<br>")
			if text == "" {
				text = "&nbsp;"
			}
			b.WriteString(fmt.Sprintf("<%s style=\"border:1px solid #333; padding:4px;\">%s</%s>", cellTag, text, cellTag))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}

// RenderReportHTML converts the read-back model into an HTML page.
func RenderReportHTML(m ReportModel) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, blk := range m.Blocks {
		if blk.Paragraph != nil {
			b.WriteString(renderParagraphHTML(*blk.Paragraph))
		} else if blk.Table != nil {
			b.WriteString(renderTableHTML(*blk.Table))
		}
	}
	b.WriteString("</body></html>\n")
	return b.String()
}
