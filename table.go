package zerocurve

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/aerissecure/zerocurve/curve"
)

// TableHeader is the first CSV record. The unnamed column holds the monthly zero rate.
var TableHeader = []string{"Months", "Par", "Zero", "", "DF", "ln(DF)"}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteTable writes every row of the dense series as CSV. Par is blank on months without a
// quote.
func WriteTable(w io.Writer, s *curve.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TableHeader); err != nil {
		return err
	}
	for _, r := range s.Rows() {
		par := ""
		if r.Quoted {
			par = formatFloat(r.Par)
		}
		rec := []string{
			strconv.Itoa(r.Months),
			par,
			formatFloat(r.Zero),
			formatFloat(r.ZeroRate),
			formatFloat(r.DF),
			formatFloat(r.LnDF),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTable parses a table written by WriteTable.
func ReadTable(r io.Reader) ([]curve.DenseRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(TableHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ReadTable: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ReadTable: missing header")
	}
	for i, h := range TableHeader {
		if records[0][i] != h {
			return nil, fmt.Errorf("ReadTable: header column %d is %q, want %q", i, records[0][i], h)
		}
	}

	rows := make([]curve.DenseRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		months, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("ReadTable: line %d: months: %w", line, err)
		}
		row := curve.DenseRow{Months: months}
		if rec[1] != "" {
			if row.Par, err = strconv.ParseFloat(rec[1], 64); err != nil {
				return nil, fmt.Errorf("ReadTable: line %d: par: %w", line, err)
			}
			row.Quoted = true
		}
		for i, dst := range []*float64{&row.Zero, &row.ZeroRate, &row.DF, &row.LnDF} {
			if *dst, err = strconv.ParseFloat(rec[i+2], 64); err != nil {
				return nil, fmt.Errorf("ReadTable: line %d: %s: %w", line, columnName(i+2), err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnName(i int) string {
	if TableHeader[i] == "" {
		return "zero rate"
	}
	return TableHeader[i]
}
