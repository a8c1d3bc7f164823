// Package quotes reads par yield quotes in the layout of the daily Treasury par yield
// curve CSV download and turns them into curve dates.
package quotes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aerissecure/zerocurve/curve"
)

var ErrDateNotFound = errors.New("no quotes for date")

// Columns maps the Treasury CSV column labels to quote field names.
var Columns = map[string]string{
	"1 Mo":  "one_month",
	"2 Mo":  "two_month",
	"3 Mo":  "three_month",
	"4 Mo":  "four_month",
	"6 Mo":  "six_month",
	"1 Yr":  "one_year",
	"2 Yr":  "two_year",
	"3 Yr":  "three_year",
	"5 Yr":  "five_year",
	"7 Yr":  "seven_year",
	"10 Yr": "ten_year",
	"20 Yr": "twenty_year",
	"30 Yr": "thirty_year",
}

var dateLayouts = []string{"01/02/2006", curve.DateLayout}

// ParseDate accepts MM/DD/YYYY and YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseTreasuryCSV reads every row of r. Blank cells are left out of the yields map so a
// missing knot is reported when the curve is built. Rows are returned by date ascending.
func ParseTreasuryCSV(r io.Reader) ([]curve.CurveDate, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 || strings.TrimPrefix(header[0], "\ufeff") != "Date" {
		return nil, fmt.Errorf("first column must be Date, got %q", header)
	}
	fields := make([]string, len(header))
	for i, label := range header[1:] {
		name, ok := Columns[strings.TrimSpace(label)]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", label)
		}
		fields[i+1] = name
	}

	var out []curve.CurveDate
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cd := curve.CurveDate{Date: date, Yields: curve.ParYields{}}
		for i := 1; i < len(rec); i++ {
			val := strings.TrimSpace(rec[i])
			if val == "" {
				continue
			}
			d, err := decimal.NewFromString(val)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s treasury data for %s: %w", line, header[i], date.Format(curve.DateLayout), err)
			}
			cd.Yields[fields[i]] = d
		}
		out = append(out, cd)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Select returns the curve dates matching dates, in the order of all (date ascending).
// An empty dates slice selects everything.
func Select(all []curve.CurveDate, dates []time.Time) ([]curve.CurveDate, error) {
	if len(dates) == 0 {
		return all, nil
	}
	index := make(map[time.Time]curve.CurveDate, len(all))
	for _, cd := range all {
		index[cd.Date] = cd
	}
	want := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		if _, ok := index[d]; !ok {
			return nil, fmt.Errorf("%w %s", ErrDateNotFound, d.Format(curve.DateLayout))
		}
		want[d] = true
	}
	var out []curve.CurveDate
	for _, cd := range all {
		if want[cd.Date] {
			out = append(out, cd)
		}
	}
	return out, nil
}
