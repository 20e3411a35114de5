package tvmcalc

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carLoan() Params {
	return Params{Pval: 5000, Nrate: 11.32, Nper: 48, Fval: 0, Pyr: 12, Due: DueEnd}
}

func TestSolvePayment(t *testing.T) {
	pmt, err := Solve(UnknownPmt, carLoan())
	require.NoError(t, err)
	assert.InDelta(t, -130.01, pmt, 0.01)
	assert.Less(t, pmt, 0.0)
}

func TestSolveRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		p    Params
	}{
		{"monthly end", Params{Pval: 5000, Fval: 0, Nrate: 11.32, Nper: 48, Pyr: 12}},
		{"annual due", Params{Pval: 100, Fval: 0, Nrate: 10, Nper: 5, Pyr: 1, Due: DueBegin}},
		{"savings with target", Params{Pval: -1000, Fval: 25000, Nrate: 4.5, Nper: 120, Pyr: 12}},
		{"negative rate", Params{Pval: 2000, Fval: -500, Nrate: -1.5, Nper: 24, Pyr: 4, Due: DueBegin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pmt, err := Solve(UnknownPmt, tc.p)
			require.NoError(t, err)
			p := tc.p.With(UnknownPmt, pmt)

			fval, err := Solve(UnknownFval, p)
			require.NoError(t, err)
			assert.InDelta(t, tc.p.Fval, fval, 1e-6)

			pval, err := Solve(UnknownPval, p)
			require.NoError(t, err)
			assert.InDelta(t, tc.p.Pval, pval, 1e-6)

			nper, err := Solve(UnknownNper, p)
			require.NoError(t, err)
			assert.InDelta(t, tc.p.Nper, nper, 1e-6)

			nrate, err := Solve(UnknownNrate, p)
			require.NoError(t, err)
			assert.InDelta(t, tc.p.Nrate, nrate, 1e-6)
		})
	}
}

func TestSolveZeroRate(t *testing.T) {
	p := Params{Pval: 1200, Fval: 0, Nrate: 0, Nper: 12, Pyr: 12}
	pmt, err := Solve(UnknownPmt, p)
	require.NoError(t, err)
	assert.Equal(t, -p.Pval/p.Nper, pmt)

	fval, err := Solve(UnknownFval, p.With(UnknownPmt, -50))
	require.NoError(t, err)
	assert.Equal(t, -600.0, fval)

	pval, err := Solve(UnknownPval, p.With(UnknownPmt, -100))
	require.NoError(t, err)
	assert.Equal(t, 1200.0, pval)

	nper, err := Solve(UnknownNper, p.With(UnknownPmt, -100))
	require.NoError(t, err)
	assert.Equal(t, 12.0, nper)

	_, err = Solve(UnknownNper, p.With(UnknownPmt, 0))
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestSolveRate(t *testing.T) {
	p := carLoan()
	pmt, err := Solve(UnknownPmt, p)
	require.NoError(t, err)

	nrate, err := Solve(UnknownNrate, p.With(UnknownPmt, pmt))
	require.NoError(t, err)
	assert.InDelta(t, 11.32, nrate, 1e-6)

	// 零利率也能被求出
	nrate, err = Solve(UnknownNrate, Params{Pval: 1200, Pmt: -100, Nper: 12, Pyr: 12})
	require.NoError(t, err)
	assert.InDelta(t, 0, nrate, 1e-5)
}

func TestSolveRateNoSignChange(t *testing.T) {
	cases := []Params{
		{Pval: 100, Pmt: 10, Fval: 100, Nper: 10, Pyr: 1},
		{Pval: -100, Pmt: -10, Fval: 0, Nper: 10, Pyr: 1},
		{Pval: 0, Pmt: 0, Fval: 0, Nper: 10, Pyr: 1},
	}
	for _, p := range cases {
		_, err := Solve(UnknownNrate, p)
		assert.ErrorIs(t, err, ErrNoConvergence)
	}
}

func TestSolveNperNoRealSolution(t *testing.T) {
	// 付款不足以覆盖利息，余额永远还不清
	_, err := Solve(UnknownNper, Params{Pval: 1000, Pmt: -5, Fval: 0, Nrate: 12, Pyr: 12})
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestSolveInvalidArguments(t *testing.T) {
	cases := []struct {
		name string
		u    Unknown
		p    Params
	}{
		{"no unknown", UnknownNone, carLoan()},
		{"unknown out of range", Unknown("RATE"), carLoan()},
		{"due out of range", UnknownPmt, Params{Pval: 100, Nrate: 10, Nper: 5, Pyr: 1, Due: 2}},
		{"zero pyr", UnknownPmt, Params{Pval: 100, Nrate: 10, Nper: 5}},
		{"negative pyr", UnknownPmt, Params{Pval: 100, Nrate: 10, Nper: 5, Pyr: -12}},
		{"nan input", UnknownPmt, Params{Pval: math.NaN(), Nrate: 10, Nper: 5, Pyr: 1}},
		{"pmt with zero periods", UnknownPmt, Params{Pval: 100, Nrate: 10, Nper: 0, Pyr: 1}},
		{"rate with zero periods", UnknownNrate, Params{Pval: 100, Pmt: -10, Nper: 0, Pyr: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Solve(tc.u, tc.p)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestSolveIgnoresUnknownField(t *testing.T) {
	p := carLoan()
	p.Pmt = math.NaN()
	pmt, err := Solve(UnknownPmt, p)
	require.NoError(t, err)
	assert.InDelta(t, -130.01, pmt, 0.01)
}

func TestInputsSplit(t *testing.T) {
	u, p, err := Inputs{Pval: Float(5000), Fval: Float(0), Nrate: Float(11.32), Nper: Float(48), Pyr: 12}.Split()
	require.NoError(t, err)
	assert.Equal(t, UnknownPmt, u)
	assert.Equal(t, carLoan(), p)

	u, p, err = Inputs{Pval: Float(1), Fval: Float(2), Pmt: Float(3), Nrate: Float(4), Nper: Float(5)}.Split()
	require.NoError(t, err)
	assert.Equal(t, UnknownNone, u)
	assert.Equal(t, 1, p.Pyr)

	_, _, err = Inputs{Pval: Float(100), Fval: Float(0), Nper: Float(5)}.Split()
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestWrappers(t *testing.T) {
	fval, err := PVFV(UnknownFval, Params{Pval: -100, Nrate: 10, Nper: 2, Pyr: 1})
	require.NoError(t, err)
	assert.InDelta(t, 121, fval, 1e-9)

	_, err = PVFV(UnknownPmt, Params{Pval: -100, Nrate: 10, Nper: 2, Pyr: 1})
	assert.ErrorIs(t, err, ErrInvalidArguments)

	// 期初存入 100，两年后 100*1.1 + 100*1.21
	fval, err = PMTFV(UnknownFval, Params{Pmt: -100, Nrate: 10, Nper: 2, Pyr: 1})
	require.NoError(t, err)
	assert.InDelta(t, 231, fval, 1e-9)

	_, err = PMTFV(UnknownPval, Params{Pmt: -100, Nrate: 10, Nper: 2, Pyr: 1})
	assert.ErrorIs(t, err, ErrInvalidArguments)

	pmt, err := PVPMT(UnknownPmt, Params{Pval: 100, Nrate: 10, Nper: 5, Pyr: 1, Fval: 999})
	require.NoError(t, err)
	assert.InDelta(t, -26.38, pmt, 0.005)

	_, err = PVPMT(UnknownFval, Params{Pval: 100, Nrate: 10, Nper: 5, Pyr: 1})
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(UnknownPmt, carLoan())
	require.NoError(t, err)
	assert.Equal(t, UnknownPmt, s.Unknown)
	assert.InDelta(t, -130.01, s.Params.Pmt, 0.01)
	assert.InDelta(t, 11.32, s.Rates.Nominal, 1e-12)
	assert.InDelta(t, 11.32/12, s.Rates.Periodic, 1e-12)
	assert.InDelta(t, 11.9262, s.Rates.Effective, 1e-4)
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(Config{MaxIterations: -1})
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = NewEngine(Config{Tolerance: -1e-9})
	assert.ErrorIs(t, err, ErrInvalidArguments)

	e, err := NewEngine(Config{})
	require.NoError(t, err)
	assert.Equal(t, defaultMaxIterations, e.cfg.MaxIterations)
	assert.Equal(t, defaultTolerance, e.cfg.Tolerance)
	assert.NotNil(t, e.logger())
}

func TestSolveRateIterationCap(t *testing.T) {
	e, err := NewEngine(Config{MaxIterations: 1})
	require.NoError(t, err)
	p := carLoan()
	pmt, err := e.Solve(UnknownPmt, p)
	require.NoError(t, err)

	_, err = e.Solve(UnknownNrate, p.With(UnknownPmt, pmt))
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestSolveRateOutOfDomain(t *testing.T) {
	cases := []struct {
		name string
		u    Unknown
		p    Params
	}{
		{"pval at -100%", UnknownPval, Params{Fval: 100, Nrate: -100, Nper: 5, Pyr: 1}},
		{"fval below -100%", UnknownFval, Params{Pval: 100, Pmt: -10, Nrate: -300, Nper: 2.5, Pyr: 1}},
		{"pmt due at -100%", UnknownPmt, Params{Pval: 100, Nrate: -100, Nper: 5, Pyr: 1, Due: DueBegin}},
		{"nper at -100%", UnknownNper, Params{Pval: 100, Pmt: -10, Nrate: -1200, Pyr: 12}},
		{"fval overflow", UnknownFval, Params{Pval: 100, Pmt: -10, Nrate: 1000, Nper: 1e5, Pyr: 1}},
		{"pval overflow", UnknownPval, Params{Fval: 100, Pmt: -10, Nrate: 1000, Nper: 1e5, Pyr: 1}},
		{"pmt overflow", UnknownPmt, Params{Pval: 100, Nrate: 1000, Nper: 1e5, Pyr: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Solve(tc.u, tc.p)
			assert.ErrorIs(t, err, ErrInvalidArguments)
			assert.Zero(t, v)
		})
	}

	// 利率为未知量时不检查利率本身
	nrate, err := Solve(UnknownNrate, Params{Pval: 100, Pmt: -50, Fval: 0, Nper: 12, Nrate: -500, Pyr: 1})
	require.NoError(t, err)
	assert.Greater(t, nrate, 0.0)
}

func TestAmortizeRejectsRateOutOfDomain(t *testing.T) {
	p := fiveYearLoan()
	p.Pmt = -30
	p.Nrate = -150
	_, err := Amortize(UnknownNone, p)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestBisect(t *testing.T) {
	e := Default()
	for _, root := range []float64{-0.95, -0.3, 3e-4, 0.07, 3.3, 80} {
		got, iter, err := e.bisect(func(x float64) float64 { return x - root })
		require.NoError(t, err, "root %g", root)
		assert.InDelta(t, root, got, 1e-8, "root %g", root)
		assert.Positive(t, iter)
	}

	_, _, err := e.bisect(func(x float64) float64 { return x*x + 1 })
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestSolveRateFallsBackToBisection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := NewEngine(Config{Logger: logger})
	require.NoError(t, err)

	// 从 10% 起步的 Newton 迭代会越过 -100%，只能由二分法求出约 49.6%
	p := Params{Pval: 100, Pmt: -50, Fval: 0, Nper: 12, Pyr: 1}
	nrate, err := e.Solve(UnknownNrate, p)
	require.NoError(t, err)
	assert.InDelta(t, 49.602, nrate, 1e-3)
	assert.Contains(t, buf.String(), "newton did not converge")
	assert.Contains(t, buf.String(), "rate solved by bisection")

	pmt, err := e.Solve(UnknownPmt, p.With(UnknownNrate, nrate))
	require.NoError(t, err)
	assert.InDelta(t, -50, pmt, 1e-6)
}
