package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/riskmanagement123/tvmcalc"
)

// valueFlags 五个 TVM 量；未出现在命令行上的即为未知量
type valueFlags struct {
	pval, fval, pmt, nrate, nper float64
	due, pyr                     int
}

func (v *valueFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&v.pval, "pval", 0, "present value")
	fs.Float64Var(&v.fval, "fval", 0, "future value")
	fs.Float64Var(&v.pmt, "pmt", 0, "periodic payment")
	fs.Float64Var(&v.nrate, "nrate", 0, "nominal annual rate in percent")
	fs.Float64Var(&v.nper, "nper", 0, "number of compounding periods")
	fs.IntVar(&v.due, "due", 0, "payment timing: 0 end of period, 1 beginning")
	fs.IntVar(&v.pyr, "pyr", 1, "compounding periods per year")
}

func (v *valueFlags) inputs(fs *pflag.FlagSet) tvmcalc.Inputs {
	in := tvmcalc.Inputs{Due: tvmcalc.Due(v.due), Pyr: v.pyr}
	pick := func(name string, val float64) *float64 {
		if !fs.Changed(name) {
			return nil
		}
		return tvmcalc.Float(val)
	}
	in.Pval = pick("pval", v.pval)
	in.Fval = pick("fval", v.fval)
	in.Pmt = pick("pmt", v.pmt)
	in.Nrate = pick("nrate", v.nrate)
	in.Nper = pick("nper", v.nper)
	return in
}

var (
	solveFlags    valueFlags
	amortizeFlags valueFlags
)

var solveCmd = &cobra.Command{
	Use:     "solve",
	Short:   "Solve for the one value flag left out",
	Example: "  tvmcalc solve --pval 5000 --nrate 11.32 --nper 48 --fval 0 --pyr 12",
	Args:    cobra.NoArgs,
	RunE:    runSolve,
}

var amortizeCmd = &cobra.Command{
	Use:     "amortize",
	Short:   "Print the amortization schedule, solving for at most one value flag left out",
	Example: "  tvmcalc amortize --pval 100 --nrate 10 --nper 5 --fval 0",
	Args:    cobra.NoArgs,
	RunE:    runAmortize,
}

func init() {
	solveFlags.register(solveCmd.Flags())
	amortizeFlags.register(amortizeCmd.Flags())
	rootCmd.AddCommand(solveCmd, amortizeCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	u, p, err := solveFlags.inputs(cmd.Flags()).Split()
	if err != nil {
		return err
	}
	if u == tvmcalc.UnknownNone {
		return fmt.Errorf("leave out exactly one of --pval, --fval, --pmt, --nrate, --nper: %w", tvmcalc.ErrInvalidArguments)
	}
	s, err := engine.Summarize(u, p)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), s)
}

func runAmortize(cmd *cobra.Command, args []string) error {
	u, p, err := amortizeFlags.inputs(cmd.Flags()).Split()
	if err != nil {
		return err
	}
	s, err := engine.Amortize(u, p)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), scheduleOutput{Params: s.Params(), Rows: s.Rows()})
}

type scheduleOutput struct {
	Params tvmcalc.Params `json:"params"`
	Rows   []tvmcalc.Row  `json:"rows"`
}
