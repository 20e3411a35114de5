package tvmcalc

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// LoanTerms 按期给定利率的贷款条款
type LoanTerms struct {
	Amount float64 // 贷款金额
	// Rates 每期名义年利率（百分数），长度 = 宽限期 + 还款期 + 1，第 0 期为放款
	Rates             Series
	Grace             int     // 只付息不还本的期数
	DiscountPoints    float64 // 折扣点数（放款时按金额比例收取，计入利息）
	OriginationPoints float64 // 手续费点数
	Prepayments       Series  // 提前还款，可为 nil
	Balloons          Series  // 气球付款，可为 nil
}

// LoanRow 贷款计划的一期
type LoanRow struct {
	Period           int             `json:"period"`
	BeginningBalance decimal.Decimal `json:"beginning_balance"`
	Rate             decimal.Decimal `json:"rate"`
	TotalPayment     decimal.Decimal `json:"total_payment"`
	InterestPayment  decimal.Decimal `json:"interest_payment"`
	PrincipalPayment decimal.Decimal `json:"principal_payment"`
	EndingBalance    decimal.Decimal `json:"ending_balance"`
}

// LoanSchedule 贷款计划，生成后只读
type LoanSchedule struct {
	rows   []LoanRow
	life   int
	grace  int
	amount float64
	pyr    int
}

func (l *LoanSchedule) Len() int { return len(l.rows) }
func (l *LoanSchedule) Life() int { return l.life }
func (l *LoanSchedule) Grace() int { return l.grace }
func (l *LoanSchedule) Row(t int) LoanRow { return l.rows[t] }

func (l *LoanSchedule) Rows() []LoanRow {
	rows := make([]LoanRow, len(l.rows))
	copy(rows, l.rows)
	return rows
}

// TotalInterest 利息合计（含折扣点数）
func (l *LoanSchedule) TotalInterest() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.rows {
		total = total.Add(r.InterestPayment)
	}
	return total
}

// FixedPrincipalLoan 等额本金：宽限期后每期偿还相同本金，
// 提前还款与气球付款在当期额外冲减本金。
func (e *Engine) FixedPrincipalLoan(t LoanTerms) (*LoanSchedule, error) {
	prepay, balloon, err := t.validate()
	if err != nil {
		return nil, err
	}
	n := t.Rates.Len()
	life := n - t.Grace - 1
	pyr := float64(t.Rates.PeriodsPerYear())

	var balloonTotal float64
	for i := 0; i < n; i++ {
		balloonTotal += balloon(i)
	}
	ppal := (t.Amount - balloonTotal) / float64(life)

	rows := make([]LoanRow, 0, n)
	var begin, end float64
	for i := 0; i < n; i++ {
		var interest, principal, total float64
		if i == 0 {
			begin = 0
			end = t.Amount - prepay(0)
			total = t.Amount * (t.DiscountPoints + t.OriginationPoints)
			interest = t.Amount * t.DiscountPoints
		} else {
			begin = end
			interest = begin * t.Rates.At(i) / pyr / 100
			principal = prepay(i) + balloon(i)
			if i > t.Grace {
				principal += ppal
			}
			total = interest + principal
			end = begin - principal
			if end < 0 {
				// 超额还款：只还清剩余本金，之后不再按期还本
				principal = begin
				total = begin + interest
				end = 0
				ppal = 0
			}
		}
		row, ok := e.loanRow(i, begin, t.Rates.At(i), total, interest, principal, end)
		if !ok {
			return nil, fmt.Errorf("balance overflow at period %d: %w", i, ErrInvalidSchedule)
		}
		rows = append(rows, row)
	}
	return t.schedule(rows), nil
}

// BulletLoan 到期一次还本：每期只付利息，最后一期偿还全部本金
func (e *Engine) BulletLoan(t LoanTerms) (*LoanSchedule, error) {
	if t.Rates == nil || t.Rates.Len() < 2 {
		return nil, fmt.Errorf("bullet loan needs at least two rate periods: %w", ErrInvalidSchedule)
	}
	values := make([]float64, t.Rates.Len())
	values[len(values)-1] = t.Amount
	t.Grace = 0
	t.Balloons = NewSeries(values, t.Rates.PeriodsPerYear())
	return e.FixedPrincipalLoan(t)
}

// FixedRateLoan 等额本息：宽限期后每期付款相同，付款额由年金方程求出；
// 气球付款先折现到宽限期末从贷款金额中扣除，到期时与提前还款一起额外支付。
func (e *Engine) FixedRateLoan(t LoanTerms) (*LoanSchedule, error) {
	prepay, balloon, err := t.validate()
	if err != nil {
		return nil, err
	}
	n := t.Rates.Len()
	life := n - t.Grace - 1
	pyr := t.Rates.PeriodsPerYear()

	var balloonPV float64
	disc := 1.0
	for i := t.Grace + 1; i < n; i++ {
		disc *= 1 + t.Rates.At(i)/float64(pyr)/100
		balloonPV += balloon(i) / disc
	}
	pmt, err := e.Solve(UnknownPmt, Params{
		Pval:  -(t.Amount - balloonPV),
		Nrate: t.Rates.At(t.Grace + 1),
		Nper:  float64(life),
		Pyr:   pyr,
	})
	if err != nil {
		return nil, err
	}
	e.logger().Debug("fixed rate loan payment", "payment", pmt, "balloon_pv", balloonPV)

	return e.levelPaymentLoan(t, func(i int, begin float64) (float64, error) {
		return pmt + balloon(i) + prepay(i), nil
	})
}

// BuydownLoan 利率变动时按剩余期数与新利率重新求解每期付款
func (e *Engine) BuydownLoan(t LoanTerms) (*LoanSchedule, error) {
	prepay, balloon, err := t.validate()
	if err != nil {
		return nil, err
	}
	n := t.Rates.Len()
	pyr := t.Rates.PeriodsPerYear()
	return e.levelPaymentLoan(t, func(i int, begin float64) (float64, error) {
		pmt, err := e.Solve(UnknownPmt, Params{
			Pval:  -begin,
			Nrate: t.Rates.At(i),
			Nper:  float64(n - i),
			Pyr:   pyr,
		})
		if err != nil {
			return 0, fmt.Errorf("period %d: %w", i, err)
		}
		return pmt + balloon(i) + prepay(i), nil
	})
}

// levelPaymentLoan 宽限期只付息；之后每期支付 due(i, 期初余额)，
// 不足以支付利息的部分计入本金，超过余额时只还清余额。
func (e *Engine) levelPaymentLoan(t LoanTerms, due func(i int, begin float64) (float64, error)) (*LoanSchedule, error) {
	n := t.Rates.Len()
	pyr := float64(t.Rates.PeriodsPerYear())
	rows := make([]LoanRow, 0, n)
	var begin, end float64
	for i := 0; i < n; i++ {
		rate := t.Rates.At(i)
		var interest, principal, total float64
		switch {
		case i == 0:
			begin = t.Amount
			end = t.Amount
			total = t.Amount * (t.DiscountPoints + t.OriginationPoints)
			interest = t.Amount * t.DiscountPoints
		case i <= t.Grace:
			begin = end
			interest = begin * rate / pyr / 100
			total = interest
		default:
			begin = end
			interest = begin * rate / pyr / 100
			pmt, err := due(i, begin)
			if err != nil {
				return nil, err
			}
			total = pmt
			principal = total - interest
			var capitalized float64
			if principal < 0 {
				capitalized = -principal
				principal = 0
			}
			end = begin - principal + capitalized
			if end < 0 {
				total = begin + interest
				principal = begin
				end = 0
			}
		}
		row, ok := e.loanRow(i, begin, rate, total, interest, principal, end)
		if !ok {
			return nil, fmt.Errorf("balance overflow at period %d: %w", i, ErrInvalidSchedule)
		}
		rows = append(rows, row)
	}
	return t.schedule(rows), nil
}

// Cashflow 借款人的净现金流：第 0 期收到贷款金额，之后支付各期款项；
// 利息按 taxRate（百分数）抵税
func (l *LoanSchedule) Cashflow(taxRate float64) *PeriodicSeries {
	values := make([]float64, len(l.rows))
	for i, r := range l.rows {
		values[i] = -r.TotalPayment.InexactFloat64() + r.InterestPayment.InexactFloat64()*taxRate/100
	}
	if len(values) > 0 {
		values[0] += l.amount
	}
	return NewSeries(values, l.pyr)
}

// TrueRate 净现金流的内部收益率，以名义年利率百分数表示
func (e *Engine) TrueRate(l *LoanSchedule, taxRate float64) (float64, error) {
	cf := l.Cashflow(taxRate)
	values := cf.Values()
	if !hasSignChange(values...) {
		return 0, fmt.Errorf("loan cashflow has no sign change: %w", ErrNoConvergence)
	}
	npv := func(r float64) (float64, float64) {
		var f, fp float64
		for t, c := range values {
			d := math.Pow(1+r, float64(t))
			f += c / d
			fp -= float64(t) * c / (d * (1 + r))
		}
		return f, fp
	}
	r, _, err := e.newton(0.1, npv)
	if err != nil {
		e.logger().Debug("newton did not converge on loan cashflow, trying bisection", "error", err)
		r, _, err = e.bisect(func(x float64) float64 {
			y, _ := npv(x)
			return y
		})
		if err != nil {
			return 0, err
		}
	}
	return r * float64(cf.PeriodsPerYear()) * 100, nil
}

func (t LoanTerms) schedule(rows []LoanRow) *LoanSchedule {
	return &LoanSchedule{
		rows:   rows,
		life:   t.Rates.Len() - t.Grace - 1,
		grace:  t.Grace,
		amount: t.Amount,
		pyr:    t.Rates.PeriodsPerYear(),
	}
}

func (e *Engine) loanRow(t int, begin, rate, total, interest, principal, end float64) (LoanRow, bool) {
	vals := [6]decimal.Decimal{}
	for i, v := range []float64{begin, rate, total, interest, principal, end} {
		d, ok := e.round(v)
		if !ok {
			return LoanRow{}, false
		}
		vals[i] = d
	}
	return LoanRow{
		Period:           t,
		BeginningBalance: vals[0],
		Rate:             vals[1],
		TotalPayment:     vals[2],
		InterestPayment:  vals[3],
		PrincipalPayment: vals[4],
		EndingBalance:    vals[5],
	}, true
}

// validate 校验条款并返回按期取值的提前还款、气球付款函数（缺省为 0）
func (t LoanTerms) validate() (func(int) float64, func(int) float64, error) {
	zero := func(int) float64 { return 0 }
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return nil, nil, fmt.Errorf("amount is not finite: %w", ErrInvalidArguments)
	}
	if t.Grace < 0 {
		return nil, nil, fmt.Errorf("grace %d: %w", t.Grace, ErrInvalidArguments)
	}
	if t.Rates == nil {
		return nil, nil, fmt.Errorf("rates series is required: %w", ErrInvalidArguments)
	}
	if t.Rates.PeriodsPerYear() <= 0 {
		return nil, nil, fmt.Errorf("pyr %d: %w", t.Rates.PeriodsPerYear(), ErrInvalidArguments)
	}
	for i := 0; i < t.Rates.Len(); i++ {
		r := t.Rates.At(i)
		if math.IsNaN(r) || math.IsInf(r, 0) || r/float64(t.Rates.PeriodsPerYear())/100 <= -1 {
			return nil, nil, fmt.Errorf("rate %g at period %d: %w", r, i, ErrInvalidArguments)
		}
	}
	if life := t.Rates.Len() - t.Grace - 1; life < 1 {
		return nil, nil, fmt.Errorf("%d rate periods leave no repayment period after grace %d: %w", t.Rates.Len(), t.Grace, ErrInvalidSchedule)
	}
	prepay, balloon := zero, zero
	if t.Prepayments != nil {
		if !sameShape(t.Rates, t.Prepayments) {
			return nil, nil, fmt.Errorf("prepayments: %w", ErrSeriesMismatch)
		}
		prepay = t.Prepayments.At
	}
	if t.Balloons != nil {
		if !sameShape(t.Rates, t.Balloons) {
			return nil, nil, fmt.Errorf("balloons: %w", ErrSeriesMismatch)
		}
		balloon = t.Balloons.At
	}
	return prepay, balloon, nil
}
