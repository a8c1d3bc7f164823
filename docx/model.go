package docx

import (
	"fmt"
	"strings"
)

// RenderParagraph is a body paragraph with its style id and plain text.
type RenderParagraph struct {
	Style string
	Text  string
	// Drawings counts inline images in the paragraph's runs.
	Drawings int
}

// IsHeading reports whether the paragraph uses one of the built-in heading styles.
func (p RenderParagraph) IsHeading() bool { return strings.HasPrefix(p.Style, "Heading") }

func (p RenderParagraph) String() string {
	return fmt.Sprintf("Style: %s, Text: %q, Drawings: %d", p.Style, p.Text, p.Drawings)
}

// RenderTable holds table cell text, row by row.
type RenderTable struct {
	Rows [][]string
}

func (t RenderTable) String() string {
	return fmt.Sprintf("Rows: %d", len(t.Rows))
}

// DocumentBlock is a top-level body element. Exactly one of Paragraph/Table is non-nil.
type DocumentBlock struct {
	Paragraph *RenderParagraph
	Table     *RenderTable
}

// ReportModel is the read-back of a report in body order.
type ReportModel struct {
	Blocks []DocumentBlock
}

// Headings returns the text of every heading paragraph.
func (m ReportModel) Headings() []string {
	var out []string
	for _, b := range m.Blocks {
		if b.Paragraph != nil && b.Paragraph.IsHeading() {
			out = append(out, b.Paragraph.Text)
		}
	}
	return out
}

// Tables returns the tables in body order.
func (m ReportModel) Tables() []RenderTable {
	var out []RenderTable
	for _, b := range m.Blocks {
		if b.Table != nil {
			out = append(out, *b.Table)
		}
	}
	return out
}

// Drawings counts inline images across the document.
func (m ReportModel) Drawings() int {
	n := 0
	for _, b := range m.Blocks {
		if b.Paragraph != nil {
			n += b.Paragraph.Drawings
		}
	}
	return n
}

func (m ReportModel) String() string {
	return fmt.Sprintf("Blocks: %d, Headings: %d, Tables: %d", len(m.Blocks), len(m.Headings()), len(m.Tables()))
}
