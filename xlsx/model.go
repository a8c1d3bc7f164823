package xlsx

import (
	"fmt"
)

// Read-back representation of a workbook, used to inspect exported files.

// RenderCell is a single populated cell.
type RenderCell struct {
	Ref     string // e.g. "C19"
	Row     int    // 1-based
	Col     int    // 0-based
	Value   string // formatted value
	Number  float64
	Numeric bool
	Formula string
}

func (c RenderCell) String() string {
	return fmt.Sprintf("Ref: %s, Value: %s, Numeric: %t, Formula: %s", c.Ref, c.Value, c.Numeric, c.Formula)
}

// RenderSheet holds the populated cells of one worksheet in row-major order.
type RenderSheet struct {
	Name      string
	GridLines bool
	Cells     []RenderCell
	index     map[string]int
}

func (s RenderSheet) String() string {
	return fmt.Sprintf("Name: %s, GridLines: %t, Cells: %d", s.Name, s.GridLines, len(s.Cells))
}

// Cell looks up a cell by reference.
func (s RenderSheet) Cell(ref string) (RenderCell, bool) {
	i, ok := s.index[ref]
	if !ok {
		return RenderCell{}, false
	}
	return s.Cells[i], true
}

// Number returns the numeric value at ref.
func (s RenderSheet) Number(ref string) (float64, bool) {
	c, ok := s.Cell(ref)
	if !ok || !c.Numeric {
		return 0, false
	}
	return c.Number, true
}

// WorkbookModel is the top-level read-back containing all sheets in workbook order.
type WorkbookModel struct {
	Sheets []RenderSheet
}

// Names returns the sheet names in workbook order.
func (m WorkbookModel) Names() []string {
	out := make([]string, len(m.Sheets))
	for i, s := range m.Sheets {
		out[i] = s.Name
	}
	return out
}

func (m WorkbookModel) Sheet(name string) (RenderSheet, bool) {
	for _, s := range m.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return RenderSheet{}, false
}
