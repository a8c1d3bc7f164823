package xlsx

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// DebugHTML adds data-ref attributes and formula titles to preview cells.
var DebugHTML = false

// RenderPreviewHTML renders each sheet of the read-back model as an HTML table covering
// the populated cell range.
func RenderPreviewHTML(m WorkbookModel) string {
	var builder strings.Builder

	builder.WriteString("<style>\n")
	builder.WriteString(".table { border-collapse: collapse; margin-bottom: 2em; }\n")
	builder.WriteString(".table td, .table th { border: 1px solid #ccc; padding: 2px 6px; font: 11px Calibri, sans-serif; }\n")
	builder.WriteString(".table th { background-color: #f2f2f2; }\n")
	builder.WriteString(".table td.num { text-align: right; }\n")
	builder.WriteString(".sheet.nogrid td { border-color: transparent; }\n")
	builder.WriteString("</style>\n")

	for _, sheet := range m.Sheets {
		class := "sheet"
		if !sheet.GridLines {
			class += " nogrid"
		}
		builder.WriteString(fmt.Sprintf("<div class=%q data-name=%q>\n", class, html.EscapeString(sheet.Name)))
		builder.WriteString(fmt.Sprintf("<h2>%s</h2>\n", html.EscapeString(sheet.Name)))

		if len(sheet.Cells) == 0 {
			builder.WriteString("<table class=\"table\"></table>\n</div>\n")
			continue
		}

		// Group cells by row and find the column span in use.
		rows := make(map[int]map[int]RenderCell)
		maxCol := 0
		for _, c := range sheet.Cells {
			if rows[c.Row] == nil {
				rows[c.Row] = make(map[int]RenderCell)
			}
			rows[c.Row][c.Col] = c
			if c.Col > maxCol {
				maxCol = c.Col
			}
		}
		rowNums := make([]int, 0, len(rows))
		for r := range rows {
			rowNums = append(rowNums, r)
		}
		sort.Ints(rowNums)

		builder.WriteString("<table class=\"table\">\n  <tr><th></th>")
		for c := 0; c <= maxCol; c++ {
			builder.WriteString("<th>" + reference.IndexToColumn(uint32(c)) + "</th>")
		}
		builder.WriteString("</tr>\n")

		for _, r := range rowNums {
			builder.WriteString(fmt.Sprintf("  <tr><th>%d</th>", r))
			for c := 0; c <= maxCol; c++ {
				cell, ok := rows[r][c]
				if !ok {
					builder.WriteString("<td></td>")
					continue
				}
				attr := ""
				if cell.Numeric {
					attr += ` class="num"`
				}
				if DebugHTML {
					attr += fmt.Sprintf(" data-ref=%q", cell.Ref)
					if cell.Formula != "" {
						attr += fmt.Sprintf(" title=%q", html.EscapeString(cell.Formula))
					}
				}
				builder.WriteString(fmt.Sprintf("<td%s>%s</td>", attr, html.EscapeString(cell.Value)))
			}
			builder.WriteString("</tr>\n")
		}
		builder.WriteString("</table>\n")
		builder.WriteString("</div>\n")
	}
	return builder.String()
}
