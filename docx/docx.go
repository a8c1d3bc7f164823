// Package docx writes the curve report document and reads it back for inspection.
package docx

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/common"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/schema/soo/wml"

	"github.com/aerissecure/zerocurve/curve"
)

// Section is one curve date in the report. Chart is an optional PNG.
type Section struct {
	Curve *curve.Curve
	Chart []byte
}

// TableHeader is the header row of every knot table.
var TableHeader = []string{"Maturity", "Months", "Par %", "Zero (monthly)", "Zero (annual)"}

const (
	headingStyle = "Heading1"
	chartWidth   = 6 * measurement.Inch
	chartHeight  = 4.5 * measurement.Inch
)

// WriteReport writes a document with a heading, a knot table and the chart for each section.
func WriteReport(w io.Writer, sections []Section) error {
	if len(sections) == 0 {
		return curve.ErrEmptyBatch
	}

	doc := document.New()

	title := doc.AddParagraph()
	title.SetStyle("Title")
	title.AddRun().AddText("Zero Curves")

	for _, s := range sections {
		if s.Curve == nil || s.Curve.Series == nil {
			return errors.New("WriteReport: section without a curve")
		}
		if err := addSection(doc, s); err != nil {
			return fmt.Errorf("WriteReport %s: %w", s.Curve.Name(), err)
		}
	}

	return doc.Save(w)
}

func addSection(doc *document.Document, s Section) error {
	h := doc.AddParagraph()
	h.SetStyle(headingStyle)
	h.AddRun().AddText(s.Curve.Name())

	table := doc.AddTable()
	table.Properties().SetWidthPercent(100)
	borders := table.Properties().Borders()
	borders.SetAll(wml.ST_BorderSingle, color.Auto, measurement.Zero)

	addRow(table, TableHeader, true)
	for _, zp := range s.Curve.Points {
		row, _ := s.Curve.Series.At(zp.Knot.Months)
		addRow(table, []string{
			zp.Knot.Name,
			strconv.Itoa(zp.Knot.Months),
			strconv.FormatFloat(zp.Par*100, 'f', 2, 64),
			strconv.FormatFloat(zp.ZeroRate, 'f', 8, 64),
			strconv.FormatFloat(row.Zero, 'f', 6, 64),
		}, false)
	}

	if len(s.Chart) == 0 {
		return nil
	}
	img, err := common.ImageFromBytes(s.Chart)
	if err != nil {
		return fmt.Errorf("chart image: %w", err)
	}
	iref, err := doc.AddImage(img)
	if err != nil {
		return fmt.Errorf("chart image: %w", err)
	}
	inl, err := doc.AddParagraph().AddRun().AddDrawingInline(iref)
	if err != nil {
		return fmt.Errorf("chart image: %w", err)
	}
	inl.SetSize(chartWidth, chartHeight)
	return nil
}

func addRow(table document.Table, values []string, bold bool) {
	row := table.AddRow()
	for _, v := range values {
		run := row.AddCell().AddParagraph().AddRun()
		if bold {
			run.Properties().SetBold(true)
		}
		run.AddText(v)
	}
}
