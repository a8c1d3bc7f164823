package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/zerocurve/curve"
)

var ErrTemplate = errors.New("workbook template")

// TemplateError reports a template that is missing, unreadable or has no usable active sheet.
type TemplateError struct {
	Path string
	Msg  string
	Err  error
}

func (e *TemplateError) Error() string {
	s := ErrTemplate.Error()
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *TemplateError) Is(target error) bool { return target == ErrTemplate }

func (e *TemplateError) Unwrap() error { return e.Err }

// LoadTemplate reads an external template file.
func LoadTemplate(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateError{Path: path, Err: err}
	}
	wb, err := spreadsheet.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &TemplateError{Path: path, Msg: "not a workbook", Err: err}
	}
	return data, wb.Close()
}

func openTemplate(data []byte) (*spreadsheet.Workbook, error) {
	if len(data) == 0 {
		return nil, &TemplateError{Msg: "empty template"}
	}
	wb, err := spreadsheet.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &TemplateError{Msg: "unreadable", Err: err}
	}
	return wb, nil
}

// Columns of the built-in template that are derived by formula. They sit next to the
// columns DefaultLayout names.
const (
	knotNameCol   = "A"
	knotAnnualCol = "F"
	knotDFCol     = "G"
	knotLnDFCol   = "H"

	denseParCol  = "K"
	denseRateCol = "M"
	denseDFCol   = "N"
	denseLnDFCol = "O"
)

// lnDFFormula interpolates ln(DF) linearly in months between the bracketing knot rows.
// {m} is the month cell, {km} the knot month range, {kl} the knot ln(DF) range.
const lnDFFormula = `IF(ISNUMBER(MATCH({m},{km},0)),INDEX({kl},MATCH({m},{km},0)),` +
	`INDEX({kl},MATCH({m},{km},1))+(INDEX({kl},MATCH({m},{km},1)+1)-INDEX({kl},MATCH({m},{km},1)))` +
	`*({m}-INDEX({km},MATCH({m},{km},1)))/(INDEX({km},MATCH({m},{km},1)+1)-INDEX({km},MATCH({m},{km},1))))`

// DefaultTemplate generates the built-in template for DefaultLayout. Knot rows carry the
// maturity names and months; the dense block J:O mirrors the CSV columns and expands the
// knot zero rates by formula.
func DefaultTemplate() ([]byte, error) {
	l := DefaultLayout
	wb := spreadsheet.New()
	defer wb.Close()

	sheet := wb.AddSheet()
	sheet.SetName("Curve")
	sheet.Cell("A1").SetString("Zero Coupon Yield Curve")

	// Cells are written in column order within each row.
	hdr := l.KnotFirstRow - 1
	for _, h := range [][2]string{
		{knotNameCol, "Maturity"},
		{l.KnotMonthCol, "Months"},
		{l.ParCol, "Par"},
		{l.ZeroCol, "Zero"},
		{knotAnnualCol, "Zero (annual)"},
		{knotDFCol, "DF"},
		{knotLnDFCol, "ln(DF)"},
	} {
		sheet.Cell(cellRef(h[0], hdr)).SetString(h[1])
	}

	for i, k := range curve.Knots {
		r := l.KnotFirstRow + i
		zero := cellRef(l.ZeroCol, r)
		sheet.Cell(cellRef(knotNameCol, r)).SetString(k.Name)
		sheet.Cell(cellRef(l.KnotMonthCol, r)).SetNumber(float64(k.Months))
		sheet.Cell(cellRef(l.ParCol, r)).SetNumber(0)
		sheet.Cell(zero).SetNumber(0)
		sheet.Cell(cellRef(knotAnnualCol, r)).SetFormulaRaw(fmt.Sprintf("(1+%s)^12-1", zero))
		sheet.Cell(cellRef(knotDFCol, r)).SetFormulaRaw(fmt.Sprintf("(1+%s)^(-%s)", zero, cellRef(l.KnotMonthCol, r)))
		sheet.Cell(cellRef(knotLnDFCol, r)).SetFormulaRaw(fmt.Sprintf("LN(%s)", cellRef(knotDFCol, r)))
	}

	hdr = l.DenseFirstRow - 1
	for _, h := range [][2]string{
		{l.DenseMonthCol, "Months"},
		{denseParCol, "Par"},
		{l.DenseZeroCol, "Zero"},
		{denseDFCol, "DF"},
		{denseLnDFCol, "ln(DF)"},
	} {
		sheet.Cell(cellRef(h[0], hdr)).SetString(h[1])
	}

	knotRange := func(col string) string {
		return fmt.Sprintf("$%s$%d:$%s$%d", col, l.KnotFirstRow, col, l.KnotLastRow())
	}
	for i := 0; i < curve.SeriesLen; i++ {
		r := l.DenseFirstRow + i
		month := cellRef(l.DenseMonthCol, r)
		sheet.Cell(month).SetNumber(float64(curve.FirstMonths + i))

		sheet.Cell(cellRef(denseParCol, r)).SetFormulaRaw(
			fmt.Sprintf(`IFERROR(INDEX(%s,MATCH(%s,%s,0)),"")`, knotRange(l.ParCol), month, knotRange(l.KnotMonthCol)))
		sheet.Cell(cellRef(l.DenseZeroCol, r)).SetFormulaRaw(
			fmt.Sprintf("(1+%s)^12-1", cellRef(denseRateCol, r)))
		sheet.Cell(cellRef(denseRateCol, r)).SetFormulaRaw(
			fmt.Sprintf("%s^(-1/%s)-1", cellRef(denseDFCol, r), month))
		sheet.Cell(cellRef(denseDFCol, r)).SetFormulaRaw("EXP(" + cellRef(denseLnDFCol, r) + ")")
		sheet.Cell(cellRef(denseLnDFCol, r)).SetFormulaRaw(strings.NewReplacer(
			"{m}", month,
			"{km}", knotRange(l.KnotMonthCol),
			"{kl}", knotRange(knotLnDFCol),
		).Replace(lnDFFormula))
	}

	var buf bytes.Buffer
	if err := wb.Save(&buf); err != nil {
		return nil, fmt.Errorf("save default template: %w", err)
	}
	return buf.Bytes(), nil
}

// activeSheet returns the index of the template's active sheet.
func activeSheet(wb *spreadsheet.Workbook) (int, error) {
	n := len(wb.Sheets())
	if n == 0 {
		return 0, &TemplateError{Msg: "no sheets"}
	}
	idx := 0
	if bv := wb.X().BookViews; bv != nil && len(bv.WorkbookView) > 0 && bv.WorkbookView[0].ActiveTabAttr != nil {
		idx = int(*bv.WorkbookView[0].ActiveTabAttr)
	}
	if idx >= n {
		return 0, &TemplateError{Msg: "active sheet " + strconv.Itoa(idx) + " does not exist"}
	}
	return idx, nil
}
