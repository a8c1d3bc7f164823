package docx

import (
	"io"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/schema/soo/wml"
)

// ParseReport reads a DOCX document from r/size and returns its paragraphs and tables in
// body order.
func ParseReport(r io.ReaderAt, size int64) (ReportModel, error) {
	doc, err := document.Read(r, size)
	if err != nil {
		return ReportModel{}, err
	}

	var mdl ReportModel

	pMap := make(map[*wml.CT_P]document.Paragraph)
	for _, p := range doc.Paragraphs() {
		pMap[p.X()] = p
	}

	tMap := make(map[*wml.CT_Tbl]document.Table)
	for _, tbl := range doc.Tables() {
		tMap[tbl.X()] = tbl
	}

	body := doc.X().Body
	if body == nil {
		return mdl, nil
	}

	for _, bl := range body.EG_BlockLevelElts {
		for _, c := range bl.EG_ContentBlockContent {
			for _, cp := range c.P {
				if par, ok := pMap[cp]; ok {
					rp := convertParagraph(par)
					mdl.Blocks = append(mdl.Blocks, DocumentBlock{Paragraph: &rp})
				}
			}
			for _, ct := range c.Tbl {
				if tbl, ok := tMap[ct]; ok {
					rt := convertTable(tbl)
					mdl.Blocks = append(mdl.Blocks, DocumentBlock{Table: &rt})
				}
			}
		}
	}

	return mdl, nil
}

func convertParagraph(p document.Paragraph) RenderParagraph {
	rp := RenderParagraph{Style: p.Style()}
	var sb strings.Builder
	for _, run := range p.Runs() {
		sb.WriteString(run.Text())
		for _, ic := range run.X().EG_RunInnerContent {
			if ic.Drawing != nil {
				rp.Drawings++
			}
		}
	}
	rp.Text = sb.String()
	return rp
}

func convertTable(t document.Table) RenderTable {
	rt := RenderTable{}
	for _, row := range t.Rows() {
		var cells []string
		for _, cell := range row.Cells() {
			var parts []string
			for _, p := range cell.Paragraphs() {
				parts = append(parts, convertParagraph(p).Text)
			}
			cells = append(cells, strings.Join(parts, "\n"))
		}
		rt.Rows = append(rt.Rows, cells)
	}
	return rt
}
