package curve

import (
	"math"
	"time"
)

// ---------------------------------------------------------------------------
// Recursive bootstrap (alternative algorithm)
// ---------------------------------------------------------------------------
//
// BootstrapZeroRates is NOT what the export pipeline uses; ZeroRates is. It solves each
// knot's discount factor from a par bond paying semiannual coupons,
//
//	1 = Σ_k c/2 · DF(6k) + DF(m)
//
// where coupons on or before the previous knot are priced off already solved knots
// (EffectiveMaturities) and coupons inside the unsolved segment are log-linearly
// interpolated towards the unknown DF(m). DF(0) = 1 anchors the first segment.

const (
	bootstrapTolerance = 1e-13
	bootstrapMaxIter   = 50
	couponMonths       = 6
)

type pillar struct {
	months int
	lnDF   float64
}

// BootstrapZeroRates returns knot zero points solved by recursive bootstrap.
func BootstrapZeroRates(cd CurveDate) ([]ZeroPoint, error) {
	solved := map[string]pillar{}
	points := make([]ZeroPoint, 0, KnotCount)

	for _, k := range Knots {
		p, ok := cd.Yields[k.Name]
		if !ok {
			return nil, missingf(cd.Date, k.Name)
		}
		pillars := []pillar{{months: 0, lnDF: 0}}
		for _, prior := range EffectiveMaturities(k) {
			pillars = append(pillars, solved[prior.Name])
		}

		df, err := solveKnotDF(cd.Date, k, ParFraction(p), pillars)
		if err != nil {
			return nil, err
		}
		solved[k.Name] = pillar{months: k.Months, lnDF: math.Log(df)}
		points = append(points, ZeroPoint{
			Knot:     k,
			Par:      ParFraction(p),
			DF:       df,
			ZeroRate: math.Pow(df, -1/float64(k.Months)) - 1,
		})
	}
	return points, nil
}

// solveKnotDF finds DF(m) with Newton-Raphson. pillars are sorted by months and end at the
// previous solved knot.
func solveKnotDF(date time.Time, m Maturity, coupon float64, pillars []pillar) (float64, error) {
	prev := pillars[len(pillars)-1]
	span := float64(m.Months - prev.months)
	if span <= 0 {
		return 0, conversionf(date, m.Name, "knot does not follow %d months", prev.months)
	}

	// Flat semiannual growth from the previous pillar is a close first guess.
	x := math.Exp(prev.lnDF) * math.Pow(1+coupon/2, -span/couponMonths)

	for iter := 0; iter < bootstrapMaxIter; iter++ {
		pv, deriv := x, 1.0
		for t := couponMonths; t <= m.Months; t += couponMonths {
			var d, dPrime float64
			if t <= prev.months {
				d = math.Exp(interpolateLnDF(pillars, t))
			} else {
				w := float64(t-prev.months) / span
				d = math.Exp(prev.lnDF + w*(math.Log(x)-prev.lnDF))
				dPrime = w * d / x
			}
			pv += coupon / 2 * d
			deriv += coupon / 2 * dPrime
		}

		f := pv - 1
		if math.Abs(f) < bootstrapTolerance {
			return x, nil
		}
		if math.Abs(deriv) < 1e-15 {
			return 0, conversionf(date, m.Name, "derivative vanished at iteration %d", iter)
		}
		x -= f / deriv
		if x <= 0 || math.IsNaN(x) {
			return 0, conversionf(date, m.Name, "discount factor %g out of range", x)
		}
	}
	return 0, conversionf(date, m.Name, "bootstrap did not converge after %d iterations", bootstrapMaxIter)
}

// interpolateLnDF is linear in ln(DF) between the bracketing pillars.
func interpolateLnDF(pillars []pillar, months int) float64 {
	for i := 1; i < len(pillars); i++ {
		lo, hi := pillars[i-1], pillars[i]
		if months <= hi.months {
			w := float64(months-lo.months) / float64(hi.months-lo.months)
			return lo.lnDF + w*(hi.lnDF-lo.lnDF)
		}
	}
	return pillars[len(pillars)-1].lnDF
}
