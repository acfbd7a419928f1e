package hdi

import "math"

// MinimizeResult is the outcome of a bounded scalar minimization.
type MinimizeResult struct {
	X           float64
	F           float64
	Evaluations int
	Converged   bool
}

const (
	defaultXAtol    = 1e-5
	defaultMaxEvals = 500
)

var (
	sqrtEps    = math.Sqrt(2.2e-16)
	goldenMean = 0.5 * (3.0 - math.Sqrt(5.0))
)

// MinimizeBounded finds a local minimum of f on [lo, hi] with Brent's method
// (golden-section search accelerated by parabolic interpolation). f is never
// evaluated outside the bounds. xatol ≤ 0 and maxEvals ≤ 0 select defaults.
func MinimizeBounded(f func(float64) float64, lo, hi, xatol float64, maxEvals int) MinimizeResult {
	if xatol <= 0 {
		xatol = defaultXAtol
	}
	if maxEvals <= 0 {
		maxEvals = defaultMaxEvals
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	a, b := lo, hi
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	var rat, e float64

	fx := f(xf)
	evals := 1
	ffulc, fnfc := fx, fx

	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1

	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true

		// try a parabolic fit through the three best points
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x := xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x := xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu := f(x)
		evals++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1

		if evals >= maxEvals {
			return MinimizeResult{X: xf, F: fx, Evaluations: evals, Converged: false}
		}
	}

	return MinimizeResult{X: xf, F: fx, Evaluations: evals, Converged: true}
}

// signOrOne is sign(v), with 0 mapped to +1.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
