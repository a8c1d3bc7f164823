package xlsx

import (
	"fmt"

	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/aerissecure/zerocurve/curve"
)

// Anchor places a chart by its top-left cell (0-based) and its size in cells.
type Anchor struct {
	Col, Row      int32
	Width, Height int32
}

// Layout is the fixed cell layout the template defines. The exporter writes only the knot
// par and zero cells; the dense block is filled by template formulas and only referenced
// by the full chart.
type Layout struct {
	KnotMonthCol string // knot months, x values of the mini chart
	ParCol       string
	ZeroCol      string
	KnotFirstRow int

	DenseMonthCol string
	DenseZeroCol  string
	DenseFirstRow int
	DenseLastRow  int

	MiniChart Anchor
	FullChart Anchor
}

var DefaultLayout = Layout{
	KnotMonthCol: "B",
	ParCol:       "C",
	ZeroCol:      "E",
	KnotFirstRow: 19,

	DenseMonthCol: "J",
	DenseZeroCol:  "L",
	DenseFirstRow: 3,
	DenseLastRow:  351,

	MiniChart: Anchor{Col: 0, Row: 1, Width: 8, Height: 15},
	FullChart: Anchor{Col: 16, Row: 1, Width: 10, Height: 22},
}

// KnotLastRow is the row of the last knot.
func (l Layout) KnotLastRow() int { return l.KnotFirstRow + curve.KnotCount - 1 }

// Validate checks the columns parse and that the row spans match the knot table and the
// dense series length.
func (l Layout) Validate() error {
	for _, col := range []string{l.KnotMonthCol, l.ParCol, l.ZeroCol, l.DenseMonthCol, l.DenseZeroCol} {
		if !validColumn(col) {
			return fmt.Errorf("layout: bad column %q", col)
		}
	}
	if l.KnotFirstRow < 1 || l.DenseFirstRow < 1 {
		return fmt.Errorf("layout: rows are 1-based")
	}
	if n := l.DenseLastRow - l.DenseFirstRow + 1; n != curve.SeriesLen {
		return fmt.Errorf("layout: dense block spans %d rows, want %d", n, curve.SeriesLen)
	}
	return nil
}

func validColumn(col string) bool {
	if col == "" || len(col) > 3 {
		return false
	}
	for _, r := range col {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return reference.ColumnToIndex(col) <= maxColumnIndex
}

// maxColumnIndex is XFD, the last column Excel addresses.
const maxColumnIndex = 16383

func cellRef(col string, row int) string { return fmt.Sprintf("%s%d", col, row) }

// rangeRef builds an absolute, sheet-qualified column range such as '2024-04-01'!$C$19:$C$26.
func rangeRef(sheet, col string, first, last int) string {
	return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, col, first, col, last)
}
