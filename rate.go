package tvmcalc

import (
	"fmt"
	"math"
)

// Rates 同一利率的三种口径，均为百分数
type Rates struct {
	Nominal   float64 `json:"nominal"`   // 名义年利率 = 每期利率 * pyr
	Effective float64 `json:"effective"` // 按 pyr 复利一年后的实际年利率
	Periodic  float64 `json:"periodic"`  // 每期利率
}

// ConvertRate 由 kind 指定的利率推出另外两种口径
//
//	nominal   -> periodic = n/pyr,                    effective = (1+p)^pyr - 1
//	effective -> periodic = (1+e)^(1/pyr) - 1,        nominal   = pyr*periodic
//	periodic  -> nominal  = pyr*p,                    effective = (1+p)^pyr - 1
func ConvertRate(kind RateKind, value float64, pyr int) (Rates, error) {
	if pyr <= 0 {
		return Rates{}, fmt.Errorf("pyr %d: %w", pyr, ErrInvalidArguments)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Rates{}, fmt.Errorf("rate is not finite: %w", ErrInvalidArguments)
	}
	n := float64(pyr)
	switch kind {
	case RateNominal:
		p := value / n
		return Rates{Nominal: value, Periodic: p, Effective: compound(p, n)}, nil
	case RateEffective:
		p := 100 * (math.Pow(1+value/100, 1/n) - 1)
		return Rates{Nominal: p * n, Periodic: p, Effective: value}, nil
	case RatePeriodic:
		return Rates{Nominal: value * n, Periodic: value, Effective: compound(value, n)}, nil
	default:
		return Rates{}, fmt.Errorf("rate kind %q: %w", kind, ErrInvalidArguments)
	}
}

// compound 每期利率（百分数）换算为实际年利率
func compound(periodic, pyr float64) float64 {
	return 100 * (math.Pow(1+periodic/100, pyr) - 1)
}
