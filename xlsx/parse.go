package xlsx

import (
	"io"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// ParseWorkbookModel reads an XLSX from r/size and returns its populated cells per sheet.
func ParseWorkbookModel(r io.ReaderAt, size int64) (WorkbookModel, error) {
	wb, err := spreadsheet.Read(r, size)
	if err != nil {
		return WorkbookModel{}, err
	}
	defer wb.Close()

	var model WorkbookModel
	for _, sheet := range wb.Sheets() {
		rs := RenderSheet{
			Name:      sheet.Name(),
			GridLines: gridlinesShown(sheet),
			index:     map[string]int{},
		}

		for _, row := range sheet.Rows() {
			for _, cell := range row.Cells() {
				ref := cell.Reference()
				cr, err := reference.ParseCellReference(ref)
				if err != nil {
					continue // unaddressable cell, skip
				}
				rc := RenderCell{
					Ref:   ref,
					Row:   int(cr.RowIdx),
					Col:   int(cr.ColumnIdx),
					Value: cell.GetFormattedValue(),
				}
				if cell.HasFormula() {
					rc.Formula = cell.GetFormula()
				}
				if v, err := cell.GetValueAsNumber(); err == nil {
					rc.Number, rc.Numeric = v, true
				}
				rs.index[ref] = len(rs.Cells)
				rs.Cells = append(rs.Cells, rc)
			}
		}

		model.Sheets = append(model.Sheets, rs)
	}

	return model, nil
}
