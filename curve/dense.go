package curve

import (
	"fmt"
	"math"
	"time"
)

// DenseRow is one month of the densified curve.
type DenseRow struct {
	Months   int
	Par      float64 // fraction of one, only meaningful when Quoted
	Quoted   bool    // true at knot months
	Zero     float64 // annualized effective
	ZeroRate float64 // monthly effective
	DF       float64
	LnDF     float64
}

// Series holds every month from FirstMonths to LastMonths, indexed by months-FirstMonths.
type Series [SeriesLen]DenseRow

// At returns the row for months, if it is inside the curve range.
func (s *Series) At(months int) (DenseRow, bool) {
	if months < FirstMonths || months > LastMonths {
		return DenseRow{}, false
	}
	return s[months-FirstMonths], true
}

// Rows returns the series as a slice sharing the array's storage.
func (s *Series) Rows() []DenseRow { return s[:] }

func knotRow(zp ZeroPoint) DenseRow {
	months := zp.Knot.Months
	df := math.Pow(1+zp.ZeroRate, -float64(months))
	return DenseRow{
		Months:   months,
		Par:      zp.Par,
		Quoted:   true,
		Zero:     math.Pow(1+zp.ZeroRate, 12) - 1,
		ZeroRate: zp.ZeroRate,
		DF:       df,
		LnDF:     math.Log(df),
	}
}

// Densify expands knot zero rates into a month-by-month curve by log-linear interpolation of
// discount factors, i.e. piecewise-constant forwards between knots. Rows at knot months are
// the knot values themselves. Nothing is extrapolated beyond the last knot.
func Densify(points []ZeroPoint) (*Series, error) {
	if len(points) != KnotCount {
		return nil, fmt.Errorf("Densify: got %d knot points, want %d", len(points), KnotCount)
	}
	keys := make(map[int]DenseRow, KnotCount)
	rows := make([]DenseRow, KnotCount)
	for i, zp := range points {
		if zp.Knot != Knots[i] {
			return nil, fmt.Errorf("Densify: point %d is %s, want %s", i, zp.Knot.Name, Knots[i].Name)
		}
		rows[i] = knotRow(zp)
		keys[zp.Knot.Months] = rows[i]
	}

	// One slope per segment, consumed in knot order as the month index passes each knot.
	slopes := make([]float64, 0, KnotCount-1)
	for i := 1; i < len(rows); i++ {
		prev, curr := rows[i-1], rows[i]
		slopes = append(slopes, (curr.LnDF-prev.LnDF)/float64(curr.Months-prev.Months))
	}

	var (
		s     Series
		last  DenseRow
		slope float64
	)
	for months := FirstMonths; months <= LastMonths; months++ {
		if row, ok := keys[months]; ok {
			last = row
			if len(slopes) > 0 {
				slope, slopes = slopes[0], slopes[1:]
			}
			s[months-FirstMonths] = row
			continue
		}
		lnDF := last.LnDF + slope*float64(months-last.Months)
		df := math.Exp(lnDF)
		z := math.Pow(1/df, 1/float64(months)) - 1
		s[months-FirstMonths] = DenseRow{
			Months:   months,
			Zero:     math.Pow(1+z, 12) - 1,
			ZeroRate: z,
			DF:       df,
			LnDF:     lnDF,
		}
	}
	return &s, nil
}

// Curve is everything derived from one curve date.
type Curve struct {
	Date   time.Time
	Points []ZeroPoint
	Series *Series
}

// Name is the curve's ISO date string, used for sheet names.
func (c *Curve) Name() string { return c.Date.Format(DateLayout) }

// Build runs rate conversion and densification for one date.
func Build(cd CurveDate) (*Curve, error) {
	points, err := ZeroRates(cd)
	if err != nil {
		return nil, err
	}
	s, err := Densify(points)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", cd.Date.Format(DateLayout), err)
	}
	return &Curve{Date: cd.Date, Points: points, Series: s}, nil
}
