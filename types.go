package tvmcalc

import "github.com/shopspring/decimal"

type Decimal = decimal.Decimal

// Due 付款时点
type Due int

// Unknown 待求解的 TVM 变量
type Unknown string

// RateKind 利率口径
type RateKind string

// Column 摊销表的列
type Column string

// ------------------- 值对象 -------------------

type RoundStrategy = func(decimal decimal.Decimal) decimal.Decimal

const (
	DueEnd   Due = 0 // 期末付款（普通年金）
	DueBegin Due = 1 // 期初付款（先付年金）
)

func (d Due) valid() bool {
	return d == DueEnd || d == DueBegin
}

func (d Due) String() string {
	if d == DueBegin {
		return "BEG"
	}
	return "END"
}

const (
	UnknownNone  Unknown = "NONE" // 五个量全部已知，仅 Amortize 接受
	UnknownPval  Unknown = "PVAL"
	UnknownFval  Unknown = "FVAL"
	UnknownPmt   Unknown = "PMT"
	UnknownNrate Unknown = "NRATE"
	UnknownNper  Unknown = "NPER"
)

func (u Unknown) valid() bool {
	switch u {
	case UnknownPval, UnknownFval, UnknownPmt, UnknownNrate, UnknownNper:
		return true
	}
	return false
}

const (
	RateNominal   RateKind = "NOMINAL"   // 名义年利率
	RateEffective RateKind = "EFFECTIVE" // 实际年利率
	RatePeriodic  RateKind = "PERIODIC"  // 每期利率
)

const (
	ColumnBeginningBalance Column = "BEGINNING_BALANCE"
	ColumnPayment          Column = "PAYMENT"
	ColumnInterest         Column = "INTEREST"
	ColumnPrincipal        Column = "PRINCIPAL"
	ColumnEndingBalance    Column = "ENDING_BALANCE"
)

var BankRound = func(d decimal.Decimal) decimal.Decimal { return d.RoundBank(2) }

// HalfUpRound 四舍五入到 2 位小数
var HalfUpRound = func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
