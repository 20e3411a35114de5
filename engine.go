package tvmcalc

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

// Engine 统一入口，持有求解与舍入配置；并发调用安全（无可变状态）
type Engine struct {
	cfg Config
}

func NewEngine(c Config) (*Engine, error) {
	cfg, err := c.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

var defaultEngine = mustEngine(Config{})

func mustEngine(c Config) *Engine {
	e, err := NewEngine(c)
	if err != nil {
		panic(err)
	}
	return e
}

// Default 返回包级函数使用的引擎
func Default() *Engine {
	return defaultEngine
}

func (e *Engine) logger() *slog.Logger {
	if e.cfg.Logger != nil {
		return e.cfg.Logger
	}
	return slog.Default()
}

// exactExponent 转换时保留的小数位，足以区分二进制值落在半分的哪一侧
const exactExponent = -20

// round 展示口径舍入，只在输出时调用一次；非有限值返回 false。
// 按 float64 的二进制精确值舍入，2.675 实为 2.67499... 因此得到 2.67。
func (e *Engine) round(v float64) (Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Decimal{}, false
	}
	return e.cfg.RoundStrategy(decimal.NewFromFloatWithExponent(v, exactExponent)), true
}

// Summary 求解后的完整参数及对应的三种利率口径
type Summary struct {
	Unknown Unknown `json:"unknown"`
	Params  Params  `json:"params"`
	Rates   Rates   `json:"rates"`
}

// Summarize 求解未知量并给出名义、实际、每期利率
func (e *Engine) Summarize(u Unknown, p Params) (Summary, error) {
	v, err := e.Solve(u, p)
	if err != nil {
		return Summary{}, err
	}
	p = p.With(u, v)
	rates, err := ConvertRate(RateNominal, p.Nrate, p.Pyr)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Unknown: u, Params: p, Rates: rates}, nil
}

// PVFV 只含现值与终值的模型：pmt 固定为 0，期末付款
func (e *Engine) PVFV(u Unknown, p Params) (float64, error) {
	if u == UnknownPmt {
		return 0, fmt.Errorf("pmt is fixed to zero in the pval/fval model: %w", ErrInvalidArguments)
	}
	p.Pmt, p.Due = 0, DueEnd
	return e.Solve(u, p)
}

// PMTFV 期初付款序列与终值的模型：pval 固定为 0
func (e *Engine) PMTFV(u Unknown, p Params) (float64, error) {
	if u == UnknownPval {
		return 0, fmt.Errorf("pval is fixed to zero in the pmt/fval model: %w", ErrInvalidArguments)
	}
	p.Pval, p.Due = 0, DueBegin
	return e.Solve(u, p)
}

// PVPMT 现值与期末付款序列的模型：fval 固定为 0
func (e *Engine) PVPMT(u Unknown, p Params) (float64, error) {
	if u == UnknownFval {
		return 0, fmt.Errorf("fval is fixed to zero in the pval/pmt model: %w", ErrInvalidArguments)
	}
	p.Fval, p.Due = 0, DueEnd
	return e.Solve(u, p)
}

func Solve(u Unknown, p Params) (float64, error) { return defaultEngine.Solve(u, p) }

func Amortize(u Unknown, p Params) (*Schedule, error) { return defaultEngine.Amortize(u, p) }

func Summarize(u Unknown, p Params) (Summary, error) { return defaultEngine.Summarize(u, p) }

func PVFV(u Unknown, p Params) (float64, error) { return defaultEngine.PVFV(u, p) }

func PMTFV(u Unknown, p Params) (float64, error) { return defaultEngine.PMTFV(u, p) }

func PVPMT(u Unknown, p Params) (float64, error) { return defaultEngine.PVPMT(u, p) }

func FixedPrincipalLoan(t LoanTerms) (*LoanSchedule, error) { return defaultEngine.FixedPrincipalLoan(t) }

func BulletLoan(t LoanTerms) (*LoanSchedule, error) { return defaultEngine.BulletLoan(t) }

func FixedRateLoan(t LoanTerms) (*LoanSchedule, error) { return defaultEngine.FixedRateLoan(t) }

func BuydownLoan(t LoanTerms) (*LoanSchedule, error) { return defaultEngine.BuydownLoan(t) }

func TrueRate(l *LoanSchedule, taxRate float64) (float64, error) {
	return defaultEngine.TrueRate(l, taxRate)
}
