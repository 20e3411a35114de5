package tvmcalc

import (
	"fmt"
	"math"
)

// Params 一组 TVM 参数。Unknown 指定的字段在求解时被忽略。
type Params struct {
	Pval  float64 `json:"pval" yaml:"pval" toml:"pval"`    // 现值
	Fval  float64 `json:"fval" yaml:"fval" toml:"fval"`    // 终值
	Pmt   float64 `json:"pmt" yaml:"pmt" toml:"pmt"`       // 每期付款
	Nrate float64 `json:"nrate" yaml:"nrate" toml:"nrate"` // 名义年利率，百分数
	Nper  float64 `json:"nper" yaml:"nper" toml:"nper"`    // 期数
	Due   Due     `json:"due" yaml:"due" toml:"due"`
	Pyr   int     `json:"pyr" yaml:"pyr" toml:"pyr"` // 每年计息次数
}

// PeriodicRate 每期利率（小数）
func (p Params) PeriodicRate() float64 {
	return p.Nrate / 100 / float64(p.Pyr)
}

// With 返回 u 对应字段替换为 v 的副本
func (p Params) With(u Unknown, v float64) Params {
	switch u {
	case UnknownPval:
		p.Pval = v
	case UnknownFval:
		p.Fval = v
	case UnknownPmt:
		p.Pmt = v
	case UnknownNrate:
		p.Nrate = v
	case UnknownNper:
		p.Nper = v
	}
	return p
}

// validate 在计算前检查边界条件，u 对应的字段不参与检查
func (p Params) validate(u Unknown) error {
	if !p.Due.valid() {
		return fmt.Errorf("due %d: %w", p.Due, ErrInvalidArguments)
	}
	if p.Pyr <= 0 {
		return fmt.Errorf("pyr %d: %w", p.Pyr, ErrInvalidArguments)
	}
	if u != UnknownNrate && p.PeriodicRate() <= -1 {
		return fmt.Errorf("nrate %g with pyr %d: periodic rate must be above -100%%: %w", p.Nrate, p.Pyr, ErrInvalidArguments)
	}
	fields := []struct {
		u Unknown
		v float64
	}{
		{UnknownPval, p.Pval},
		{UnknownFval, p.Fval},
		{UnknownPmt, p.Pmt},
		{UnknownNrate, p.Nrate},
		{UnknownNper, p.Nper},
	}
	for _, f := range fields {
		if f.u == u {
			continue
		}
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s is not finite: %w", f.u, ErrInvalidArguments)
		}
	}
	return nil
}

// Inputs 以 nil 表示未知量的参数形式
type Inputs struct {
	Pval  *float64 `json:"pval,omitempty" yaml:"pval,omitempty" toml:"pval,omitempty"`
	Fval  *float64 `json:"fval,omitempty" yaml:"fval,omitempty" toml:"fval,omitempty"`
	Pmt   *float64 `json:"pmt,omitempty" yaml:"pmt,omitempty" toml:"pmt,omitempty"`
	Nrate *float64 `json:"nrate,omitempty" yaml:"nrate,omitempty" toml:"nrate,omitempty"`
	Nper  *float64 `json:"nper,omitempty" yaml:"nper,omitempty" toml:"nper,omitempty"`
	Due   Due      `json:"due" yaml:"due" toml:"due"`
	Pyr   int      `json:"pyr" yaml:"pyr" toml:"pyr"`
}

// Split 统计未设置的量：全部已知返回 UnknownNone，超过一个未知返回 ErrInvalidArguments。
// Pyr 为 0 时按 1 处理。
func (in Inputs) Split() (Unknown, Params, error) {
	p := Params{Due: in.Due, Pyr: in.Pyr}
	if p.Pyr == 0 {
		p.Pyr = 1
	}
	u := UnknownNone
	missing := 0
	set := func(ptr *float64, dst *float64, name Unknown) {
		if ptr == nil {
			missing++
			u = name
			return
		}
		*dst = *ptr
	}
	set(in.Pval, &p.Pval, UnknownPval)
	set(in.Fval, &p.Fval, UnknownFval)
	set(in.Pmt, &p.Pmt, UnknownPmt)
	set(in.Nrate, &p.Nrate, UnknownNrate)
	set(in.Nper, &p.Nper, UnknownNper)
	if missing > 1 {
		return UnknownNone, p, fmt.Errorf("%d unset values, at most one allowed: %w", missing, ErrInvalidArguments)
	}
	return u, p, nil
}

// Float 取地址辅助，便于构造 Inputs
func Float(v float64) *float64 {
	return &v
}
