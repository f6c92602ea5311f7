/*
Package cosmo computes the flat(ish) LCDM background quantities needed to
place snapshots in time.

Times are in the internal unit (Mpc/h) / (km/s), masses in 10^10 M_sol/h and
lengths in Mpc/h, which is the unit system used by the halo catalogs.
*/
package cosmo

import (
	"fmt"
	"math"
)

const (
	// HubbleTime is 1/H0 in internal time units.
	HubbleTime = 0.01
	// G is the gravitational constant in internal units.
	G = 43.0071
	// MyrPerTimeUnit converts internal time units into Myr/h.
	MyrPerTimeUnit = 977792.2

	lookbackGridLen = 1024
)

// Params describes the cosmology which the simulation was run with.
type Params struct {
	OmegaM, OmegaL, H100 float64
}

// E returns H(a) / H0.
func (p Params) E(a float64) float64 {
	omegaK := 1 - p.OmegaM - p.OmegaL
	return math.Sqrt(p.OmegaM/(a*a*a) + omegaK/(a*a) + p.OmegaL)
}

// Redshift returns the redshift corresponding to the scale factor a.
func Redshift(a float64) float64 { return 1/a - 1 }

// LookbackTable interpolates the lookback time between a minimum scale
// factor and a = 1.
type LookbackTable struct {
	sp     *Spline
	lnAMin float64
}

// NewLookbackTable integrates the lookback time onto a grid which is uniform
// in ln(a) and splines the result.
func NewLookbackTable(p Params, aMin float64) (*LookbackTable, error) {
	if aMin <= 0 || aMin >= 1 {
		return nil, fmt.Errorf(
			"Minimum scale factor of a lookback table must be in (0, 1), but is %g.",
			aMin,
		)
	}

	n := lookbackGridLen
	lnAMin := math.Log(aMin)
	du := -lnAMin / float64(n-1)

	us, ts := make([]float64, n), make([]float64, n)
	for i := range us {
		us[i] = lnAMin + float64(i)*du
	}
	us[n-1] = 0

	// dt = da / (a H) = du / H. Integrate down from a = 1 with Simpson's rule
	// on each interval.
	f := func(u float64) float64 { return HubbleTime / p.E(math.Exp(u)) }
	ts[n-1] = 0
	for i := n - 2; i >= 0; i-- {
		lo, hi := us[i], us[i+1]
		ts[i] = ts[i+1] + (hi-lo)/6*(f(lo)+4*f((lo+hi)/2)+f(hi))
	}

	return &LookbackTable{sp: NewSpline(us, ts), lnAMin: lnAMin}, nil
}

// Lookback returns the lookback time to the scale factor a.
func (lt *LookbackTable) Lookback(a float64) float64 {
	if a >= 1 {
		return 0
	}
	u := math.Log(a)
	if u < lt.lnAMin {
		u = lt.lnAMin
	}
	return lt.sp.Eval(u)
}

// LookbackTimes returns the lookback time of every scale factor in scales.
func LookbackTimes(p Params, scales []float64) ([]float64, error) {
	aMin := 1.0
	for i, a := range scales {
		if a <= 0 || a > 1 {
			return nil, fmt.Errorf(
				"Scale factor of snapshot %d must be in (0, 1], but is %g.", i, a,
			)
		}
		if a < aMin {
			aMin = a
		}
	}

	out := make([]float64, len(scales))
	if aMin == 1 {
		return out, nil
	}

	lt, err := NewLookbackTable(p, aMin)
	if err != nil {
		return nil, err
	}
	for i, a := range scales {
		out[i] = lt.Lookback(a)
	}
	return out, nil
}
