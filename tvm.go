package tvmcalc

import (
	"fmt"
	"math"
)

// 年金方程：pval*(1+r)^n + pmt*(1+r*due)*((1+r)^n-1)/r + fval = 0
// r 为每期利率（小数），对外统一使用名义年利率百分数 nrate = r*pyr*100

// zeroPmtEpsilon 低于该值的付款在 r==0 求期数时视为零
const zeroPmtEpsilon = 1e-12

// rateBracketGrid 二分法搜索区间用的候选每期利率
var rateBracketGrid = []float64{
	-0.999, -0.99, -0.9, -0.75, -0.5, -0.25, -0.1, -0.05, -0.01, -0.001,
	0, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25, 100,
}

// Solve 求解 u 对应的变量，其余四个量取自 p。
func (e *Engine) Solve(u Unknown, p Params) (float64, error) {
	if !u.valid() {
		return 0, fmt.Errorf("unknown %q: exactly one of pval, fval, pmt, nrate, nper must be unknown: %w", u, ErrInvalidArguments)
	}
	if err := p.validate(u); err != nil {
		return 0, err
	}
	r := p.PeriodicRate()
	due := float64(p.Due)
	var v float64
	switch u {
	case UnknownFval:
		v = futureValue(r, p.Nper, p.Pmt, p.Pval, due)
	case UnknownPval:
		v = presentValue(r, p.Nper, p.Pmt, p.Fval, due)
	case UnknownPmt:
		if p.Nper == 0 {
			return 0, fmt.Errorf("solve pmt with nper 0: %w", ErrInvalidArguments)
		}
		v = payment(r, p.Nper, p.Pval, p.Fval, due)
	case UnknownNper:
		return numPeriods(r, p.Pmt, p.Pval, p.Fval, due)
	default:
		if p.Nper <= 0 {
			return 0, fmt.Errorf("solve nrate with nper %g: %w", p.Nper, ErrInvalidArguments)
		}
		rate, err := e.solveRate(p.Nper, p.Pmt, p.Pval, p.Fval, due)
		if err != nil {
			return 0, err
		}
		return rate * float64(p.Pyr) * 100, nil
	}
	// (1+r)^n 溢出时闭式解为 Inf 或 NaN
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s overflows for nrate %g over %g periods: %w", u, p.Nrate, p.Nper, ErrInvalidArguments)
	}
	return v, nil
}

// annuityFactor 返回 ((1+r)^n-1)/r，r==0 时取极限 n
func annuityFactor(r, n float64) float64 {
	if r == 0 {
		return n
	}
	return (math.Pow(1+r, n) - 1) / r
}

func futureValue(r, n, pmt, pval, due float64) float64 {
	if r == 0 {
		return -(pval + pmt*n)
	}
	return -(pval*math.Pow(1+r, n) + pmt*(1+r*due)*annuityFactor(r, n))
}

func presentValue(r, n, pmt, fval, due float64) float64 {
	if r == 0 {
		return -(fval + pmt*n)
	}
	return -(fval + pmt*(1+r*due)*annuityFactor(r, n)) / math.Pow(1+r, n)
}

func payment(r, n, pval, fval, due float64) float64 {
	if r == 0 {
		return -(fval + pval) / n
	}
	return -(fval + pval*math.Pow(1+r, n)) / ((1 + r*due) * annuityFactor(r, n))
}

func numPeriods(r, pmt, pval, fval, due float64) (float64, error) {
	if r == 0 {
		if math.Abs(pmt) < zeroPmtEpsilon {
			return 0, fmt.Errorf("nper with zero rate and zero payment: no finite number of periods: %w", ErrNoConvergence)
		}
		return -(fval + pval) / pmt, nil
	}
	z := pmt * (1 + r*due)
	n := math.Log((z-fval*r)/(z+pval*r)) / math.Log(1+r)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("nper has no real solution for the given cashflow: %w", ErrNoConvergence)
	}
	return n, nil
}

// balance 年金方程左端及其对 r 的导数
func balance(r, n, pmt, pval, fval, due float64) (float64, float64) {
	if math.Abs(r) < 1e-12 {
		// r→0 的极限，避免 ((1+r)^n-1)/r 相消误差
		f := pval + pmt*n + fval
		fp := pval*n + pmt*(due*n+n*(n-1)/2)
		return f, fp
	}
	a := math.Pow(1+r, n)
	ap := n * math.Pow(1+r, n-1)
	g := (a - 1) / r
	gp := (ap*r - (a - 1)) / (r * r)
	f := pval*a + pmt*(1+r*due)*g + fval
	fp := pval*ap + pmt*(due*g+(1+r*due)*gp)
	return f, fp
}

// hasSignChange 现金流全部同号时任何 r>-1 都无解
func hasSignChange(values ...float64) bool {
	pos, neg := false, false
	for _, v := range values {
		switch {
		case v > 0:
			pos = true
		case v < 0:
			neg = true
		}
	}
	return pos && neg
}

// solveRate 先用 Newton 迭代，失败后在候选区间上二分
func (e *Engine) solveRate(n, pmt, pval, fval, due float64) (float64, error) {
	if !hasSignChange(pval, pmt, fval) {
		return 0, fmt.Errorf("cashflow has no sign change (pval=%g pmt=%g fval=%g): %w", pval, pmt, fval, ErrNoConvergence)
	}
	f := func(r float64) (float64, float64) { return balance(r, n, pmt, pval, fval, due) }
	r, iter, err := e.newton(0.1, f)
	if err == nil {
		e.logger().Debug("rate solved by newton", "rate", r, "iterations", iter)
		return r, nil
	}
	e.logger().Debug("newton did not converge, trying bisection", "error", err)
	r, iter, err = e.bisect(func(x float64) float64 {
		y, _ := f(x)
		return y
	})
	if err != nil {
		return 0, err
	}
	e.logger().Debug("rate solved by bisection", "rate", r, "iterations", iter)
	return r, nil
}

func (e *Engine) newton(x0 float64, ffp func(float64) (float64, float64)) (float64, int, error) {
	x := x0
	for k := 1; k <= e.cfg.MaxIterations; k++ {
		y, yp := ffp(x)
		if yp == 0 || math.IsNaN(yp) || math.IsInf(yp, 0) {
			return 0, k, fmt.Errorf("newton: degenerate derivative at %g: %w", x, ErrNoConvergence)
		}
		x1 := x - y/yp
		if math.IsNaN(x1) || math.IsInf(x1, 0) || x1 <= -1 {
			return 0, k, fmt.Errorf("newton: left the domain at step %d: %w", k, ErrNoConvergence)
		}
		if math.Abs(x1-x) <= e.cfg.Tolerance {
			return x1, k, nil
		}
		x = x1
	}
	return 0, e.cfg.MaxIterations, fmt.Errorf("newton: failed to converge after %d iterations: %w", e.cfg.MaxIterations, ErrNoConvergence)
}

// bisect 在 rateBracketGrid 中找到第一个变号区间后二分
func (e *Engine) bisect(f func(float64) float64) (float64, int, error) {
	low, high := 0.0, 0.0
	found := false
	prev := rateBracketGrid[0]
	fPrev := f(prev)
	for _, x := range rateBracketGrid[1:] {
		fx := f(x)
		if fPrev == 0 {
			return prev, 0, nil
		}
		if !math.IsNaN(fPrev) && !math.IsNaN(fx) && (fPrev < 0) != (fx < 0) {
			low, high, found = prev, x, true
			break
		}
		prev, fPrev = x, fx
	}
	if !found {
		return 0, 0, fmt.Errorf("bisect: no bracketing interval for the rate: %w", ErrNoConvergence)
	}
	fLow := f(low)
	for k := 1; k <= e.cfg.MaxIterations; k++ {
		mid := (low + high) / 2
		fMid := f(mid)
		if fMid == 0 || high-low <= e.cfg.Tolerance {
			return mid, k, nil
		}
		if (fMid < 0) == (fLow < 0) {
			low, fLow = mid, fMid
		} else {
			high = mid
		}
	}
	return 0, e.cfg.MaxIterations, fmt.Errorf("bisect: failed to converge after %d iterations: %w", e.cfg.MaxIterations, ErrNoConvergence)
}
