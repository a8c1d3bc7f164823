package curve

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO date form used for sheet names and log fields.
const DateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// ParYields maps a knot name to its par yield in percent. An absent key is a null quote.
type ParYields map[string]decimal.Decimal

// CurveDate is one date's par yield quotes.
type CurveDate struct {
	Date   time.Time
	Yields ParYields
}

// ZeroPoint is the knot-level result of the rate conversion.
type ZeroPoint struct {
	Knot     Maturity
	Par      float64 // fraction of one
	DF       float64
	ZeroRate float64 // effective monthly
}

// ParFraction converts a percent quote to a fraction of one without binary rounding drift,
// so 5.06 becomes exactly the float64 nearest 0.0506.
func ParFraction(p decimal.Decimal) float64 {
	f, _ := p.Div(hundred).Float64()
	return f
}

// ConvertPar turns a semiannual par yield p (percent) at knot m into a discount factor and
// an effective monthly zero rate:
//
//	DF(m) = (1 + p/200)^(-m/6)
//	Z(m)  = DF(m)^(-1/m) - 1
//
// The conversion uses only the knot's own quote. It is not a cross-maturity bootstrap;
// see BootstrapZeroRates for that variant.
func ConvertPar(date time.Time, m Maturity, p decimal.Decimal) (ZeroPoint, error) {
	if m.Months <= 0 {
		return ZeroPoint{}, conversionf(date, m.Name, "non-positive maturity %d", m.Months)
	}
	base := 1 + p.InexactFloat64()/200
	if base <= 0 {
		return ZeroPoint{}, conversionf(date, m.Name, "par yield %s gives non-positive growth factor", p)
	}
	months := float64(m.Months)
	df := math.Pow(base, -months/6)
	if df <= 0 || math.IsInf(df, 0) || math.IsNaN(df) {
		return ZeroPoint{}, conversionf(date, m.Name, "discount factor %g out of range", df)
	}
	z := math.Pow(df, -1/months) - 1
	if math.IsInf(z, 0) || math.IsNaN(z) {
		return ZeroPoint{}, conversionf(date, m.Name, "zero rate %g out of range", z)
	}
	return ZeroPoint{Knot: m, Par: ParFraction(p), DF: df, ZeroRate: z}, nil
}

// ZeroRates converts every active knot of cd. Any missing or unconvertible knot fails the
// whole date; no partial result is returned.
func ZeroRates(cd CurveDate) ([]ZeroPoint, error) {
	points := make([]ZeroPoint, 0, KnotCount)
	for _, k := range Knots {
		p, ok := cd.Yields[k.Name]
		if !ok {
			return nil, missingf(cd.Date, k.Name)
		}
		zp, err := ConvertPar(cd.Date, k, p)
		if err != nil {
			return nil, err
		}
		points = append(points, zp)
	}
	return points, nil
}
