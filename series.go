package tvmcalc

// Series 按期排列的数值序列及其每年期数；第 0 个为首期，不涉及日历标签
type Series interface {
	Len() int
	At(i int) float64
	PeriodsPerYear() int
}

// PeriodicSeries 基于切片的 Series 实现
type PeriodicSeries struct {
	values []float64
	pyr    int
}

// NewSeries 复制 values；pyr 非正时按每年 1 期处理
func NewSeries(values []float64, pyr int) *PeriodicSeries {
	if pyr <= 0 {
		pyr = 1
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &PeriodicSeries{values: v, pyr: pyr}
}

// Constant n 期相同取值的序列
func Constant(value float64, n int, pyr int) *PeriodicSeries {
	if n < 0 {
		n = 0
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = value
	}
	return NewSeries(v, pyr)
}

func (s *PeriodicSeries) Len() int            { return len(s.values) }
func (s *PeriodicSeries) At(i int) float64    { return s.values[i] }
func (s *PeriodicSeries) PeriodsPerYear() int { return s.pyr }

// Values 返回副本
func (s *PeriodicSeries) Values() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// Sum 各期合计
func (s *PeriodicSeries) Sum() float64 {
	var total float64
	for _, v := range s.values {
		total += v
	}
	return total
}

func sameShape(a, b Series) bool {
	return a.Len() == b.Len() && a.PeriodsPerYear() == b.PeriodsPerYear()
}
