package tvmcalc

import (
	"fmt"
	"log/slog"
)

const (
	defaultMaxIterations = 100
	defaultTolerance     = 1e-10
)

// Config 运行时配置，零值字段在 NewEngine 时取默认值
type Config struct {
	RoundStrategy RoundStrategy
	// Logger 为空时使用调用时刻的 slog.Default()
	Logger *slog.Logger
	// MaxIterations 求解利率时 Newton 与二分法各自的迭代上限
	MaxIterations int
	// Tolerance 利率迭代的收敛步长（每期利率，小数）
	Tolerance float64
}

// withDefaults 校验并补齐默认依赖。
func (c Config) withDefaults() (Config, error) {
	if c.MaxIterations < 0 {
		return c, fmt.Errorf("max iterations %d: %w", c.MaxIterations, ErrInvalidArguments)
	}
	if c.Tolerance < 0 {
		return c, fmt.Errorf("tolerance %g: %w", c.Tolerance, ErrInvalidArguments)
	}
	if c.RoundStrategy == nil {
		c.RoundStrategy = BankRound
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.Tolerance == 0 {
		c.Tolerance = defaultTolerance
	}
	return c, nil
}
