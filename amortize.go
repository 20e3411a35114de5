package tvmcalc

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// nperSnap 与整数相差小于该值的期数按整数处理
	nperSnap = 1e-9
	// maxPeriods 单张摊销表的期数上限
	maxPeriods = 1 << 20
)

// Row 摊销表的一期
type Row struct {
	Period           int             `json:"period"`
	BeginningBalance decimal.Decimal `json:"beginning_balance"` // 期初余额
	Payment          decimal.Decimal `json:"payment"`           // 本期付款
	Interest         decimal.Decimal `json:"interest"`          // 本期利息
	Principal        decimal.Decimal `json:"principal"`         // 本期本金变动 = 付款 + 利息
	EndingBalance    decimal.Decimal `json:"ending_balance"`    // 期末余额
}

// Schedule 摊销表，生成后只读
type Schedule struct {
	params Params
	rows   []Row
}

// Amortize 生成 0..nper 期的摊销表。u 为 UnknownNone 时参数按原样使用，
// 否则先通过 Solve 求出未知量。
func (e *Engine) Amortize(u Unknown, p Params) (*Schedule, error) {
	if u != UnknownNone {
		v, err := e.Solve(u, p)
		if err != nil {
			return nil, err
		}
		p = p.With(u, v)
	} else if err := p.validate(UnknownNone); err != nil {
		return nil, err
	}

	nper, err := periodCount(p.Nper)
	if err != nil {
		return nil, err
	}
	if float64(nper) != p.Nper {
		e.logger().Debug("nper rounded up", "nper", p.Nper, "periods", nper)
	}

	erate := p.PeriodicRate()
	pmts := make([]float64, nper+1)
	for i := range pmts {
		pmts[i] = p.Pmt
	}
	if p.Due == DueEnd {
		pmts[0] = 0
	}
	if p.Due == DueBegin {
		pmts[nper] = 0
	}

	rows := make([]Row, 0, nper+1)
	var begin, end float64
	for t := 0; t <= nper; t++ {
		var interest float64
		if t == 0 {
			begin = p.Pval
		} else {
			begin = end
			interest = begin * erate
		}
		principal := pmts[t] + interest
		end = begin + principal
		row, ok := e.row(t, begin, pmts[t], interest, principal, end)
		if !ok {
			return nil, fmt.Errorf("balance overflow at period %d: %w", t, ErrInvalidSchedule)
		}
		rows = append(rows, row)
	}
	return &Schedule{params: p, rows: rows}, nil
}

func (e *Engine) row(t int, begin, pmt, interest, principal, end float64) (Row, bool) {
	vals := [5]decimal.Decimal{}
	for i, v := range []float64{begin, pmt, interest, principal, end} {
		d, ok := e.round(v)
		if !ok {
			return Row{}, false
		}
		vals[i] = d
	}
	return Row{
		Period:           t,
		BeginningBalance: vals[0],
		Payment:          vals[1],
		Interest:         vals[2],
		Principal:        vals[3],
		EndingBalance:    vals[4],
	}, true
}

// periodCount 期数向上取整；负数或非有限值不能构成摊销表
func periodCount(nper float64) (int, error) {
	if math.IsNaN(nper) || math.IsInf(nper, 0) || nper < 0 {
		return 0, fmt.Errorf("nper %g: %w", nper, ErrInvalidSchedule)
	}
	if r := math.Round(nper); math.Abs(nper-r) < nperSnap {
		nper = r
	}
	n := math.Ceil(nper)
	if n > maxPeriods {
		return 0, fmt.Errorf("nper %g: %w", nper, ErrInvalidSchedule)
	}
	return int(n), nil
}

// Params 返回已求解的完整参数
func (s *Schedule) Params() Params {
	return s.params
}

// Len 行数，等于期数 + 1
func (s *Schedule) Len() int {
	return len(s.rows)
}

// Nper 期数
func (s *Schedule) Nper() int {
	return len(s.rows) - 1
}

// Row 第 t 期
func (s *Schedule) Row(t int) Row {
	return s.rows[t]
}

// Rows 返回副本
func (s *Schedule) Rows() []Row {
	rows := make([]Row, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// Last 最后一期
func (s *Schedule) Last() Row {
	return s.rows[len(s.rows)-1]
}

// Column 按列取出，频率沿用参数中的 pyr
func (s *Schedule) Column(c Column) (*PeriodicSeries, error) {
	pick, err := columnPicker(c)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(s.rows))
	for i, r := range s.rows {
		values[i] = pick(r).InexactFloat64()
	}
	return NewSeries(values, s.params.Pyr), nil
}

func (s *Schedule) sum(pick func(Row) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.rows {
		total = total.Add(pick(r))
	}
	return total
}

// TotalInterest 利息合计（按舍入后的列）
func (s *Schedule) TotalInterest() decimal.Decimal {
	return s.sum(func(r Row) decimal.Decimal { return r.Interest })
}

// TotalPrincipal 本金合计
func (s *Schedule) TotalPrincipal() decimal.Decimal {
	return s.sum(func(r Row) decimal.Decimal { return r.Principal })
}

// TotalPayment 付款合计
func (s *Schedule) TotalPayment() decimal.Decimal {
	return s.sum(func(r Row) decimal.Decimal { return r.Payment })
}

func columnPicker(c Column) (func(Row) decimal.Decimal, error) {
	switch c {
	case ColumnBeginningBalance:
		return func(r Row) decimal.Decimal { return r.BeginningBalance }, nil
	case ColumnPayment:
		return func(r Row) decimal.Decimal { return r.Payment }, nil
	case ColumnInterest:
		return func(r Row) decimal.Decimal { return r.Interest }, nil
	case ColumnPrincipal:
		return func(r Row) decimal.Decimal { return r.Principal }, nil
	case ColumnEndingBalance:
		return func(r Row) decimal.Decimal { return r.EndingBalance }, nil
	}
	return nil, fmt.Errorf("column %q: %w", c, ErrInvalidArguments)
}
