// Package curve converts par yields into zero rates and expands them into a monthly curve.
package curve

// Maturity is a standard bond maturity at which a par yield is quoted.
type Maturity struct {
	Name   string
	Months int
}

// SixMonth is quoted by the Treasury but is not part of the active knot table.
var SixMonth = Maturity{Name: "six_month", Months: 6}

// Knots is the active knot table. Months are strictly increasing.
var Knots = [KnotCount]Maturity{
	{Name: "one_year", Months: 12},
	{Name: "two_year", Months: 24},
	{Name: "three_year", Months: 36},
	{Name: "five_year", Months: 60},
	{Name: "seven_year", Months: 84},
	{Name: "ten_year", Months: 120},
	{Name: "twenty_year", Months: 240},
	{Name: "thirty_year", Months: 360},
}

const (
	KnotCount   = 8
	FirstMonths = 12
	LastMonths  = 360
	// SeriesLen is the number of monthly rows between the first and last knot, inclusive.
	SeriesLen = LastMonths - FirstMonths + 1
)

// EffectiveMaturities returns the knots with fewer months than m, in knot order.
// Only the recursive bootstrap consumes it.
func EffectiveMaturities(m Maturity) []Maturity {
	var out []Maturity
	for _, k := range Knots {
		if k.Months < m.Months {
			out = append(out, k)
		}
	}
	return out
}

// KnotByMonths looks up the active knot quoted at months.
func KnotByMonths(months int) (Maturity, bool) {
	for _, k := range Knots {
		if k.Months == months {
			return k, true
		}
	}
	return Maturity{}, false
}
