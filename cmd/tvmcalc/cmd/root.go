package cmd

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/riskmanagement123/tvmcalc"
	"github.com/riskmanagement123/tvmcalc/internal/logging"
)

var (
	logLevel  string
	logFormat string

	logger *slog.Logger
	engine *tvmcalc.Engine
)

var rootCmd = &cobra.Command{
	Use:               "tvmcalc",
	Short:             "Time value of money solver and amortization schedules",
	SilenceUsage:      true,
	PersistentPreRunE: initEngine,
	Long: `tvmcalc solves the annuity equation for whichever of present value,
future value, payment, nominal rate or number of periods is left out,
and expands a parameter set into a period-by-period amortization schedule.

Results are written to stdout as JSON.`,
}

func initEngine(cmd *cobra.Command, args []string) error {
	l, err := logging.InitLogger(logging.LogConfig{Level: logLevel, Format: logFormat}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger = l
	e, err := tvmcalc.NewEngine(tvmcalc.Config{Logger: logger})
	if err != nil {
		return err
	}
	engine = e
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	decimal.MarshalJSONWithoutQuotes = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
