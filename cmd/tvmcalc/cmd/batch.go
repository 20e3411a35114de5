package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/riskmanagement123/tvmcalc"
)

// scenario 批量文件中的一组参数，缺省的值即为未知量
type scenario struct {
	Name     string   `yaml:"name" toml:"name"`
	Pval     *float64 `yaml:"pval" toml:"pval"`
	Fval     *float64 `yaml:"fval" toml:"fval"`
	Pmt      *float64 `yaml:"pmt" toml:"pmt"`
	Nrate    *float64 `yaml:"nrate" toml:"nrate"`
	Nper     *float64 `yaml:"nper" toml:"nper"`
	Due      int      `yaml:"due" toml:"due"`
	Pyr      int      `yaml:"pyr" toml:"pyr"`
	Amortize bool     `yaml:"amortize" toml:"amortize"`
}

type scenarioFile struct {
	Scenarios []scenario `yaml:"scenarios" toml:"scenarios"`
}

type batchResult struct {
	Name     string           `json:"name"`
	Summary  *tvmcalc.Summary `json:"summary,omitempty"`
	Schedule *scheduleOutput  `json:"schedule,omitempty"`
	Error    string           `json:"error,omitempty"`
}

var batchFile string

var batchCmd = &cobra.Command{
	Use:     "batch",
	Short:   "Run every scenario in a YAML or TOML file, one JSON line per scenario",
	Example: "  tvmcalc batch --file scenarios.yaml",
	Args:    cobra.NoArgs,
	RunE:    runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "scenario file (.yaml, .yml or .toml)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenarios, err := loadScenarios(batchFile)
	if err != nil {
		return err
	}
	logger.Info("running batch", "file", batchFile, "scenarios", len(scenarios))
	return runScenarios(cmd.OutOrStdout(), engine, scenarios)
}

// loadScenarios 按扩展名选择解码器
func loadScenarios(path string) ([]scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var f scenarioFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &f); err != nil {
			return nil, fmt.Errorf("parse YAML %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(content), &f); err != nil {
			return nil, fmt.Errorf("parse TOML %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario file extension %q", ext)
	}
	return f.Scenarios, nil
}

// runScenarios 单个场景失败只记录在 error 字段，不中断后续场景
func runScenarios(w io.Writer, e *tvmcalc.Engine, scenarios []scenario) error {
	for i, s := range scenarios {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("scenario-%d", i+1)
		}
		res := runScenario(e, s)
		res.Name = name
		if res.Error != "" {
			logger.Warn("scenario failed", "name", name, "error", res.Error)
		}
		if err := writeJSON(w, res); err != nil {
			return err
		}
	}
	return nil
}

func runScenario(e *tvmcalc.Engine, s scenario) batchResult {
	in := tvmcalc.Inputs{
		Pval:  s.Pval,
		Fval:  s.Fval,
		Pmt:   s.Pmt,
		Nrate: s.Nrate,
		Nper:  s.Nper,
		Due:   tvmcalc.Due(s.Due),
		Pyr:   s.Pyr,
	}
	u, p, err := in.Split()
	if err != nil {
		return batchResult{Error: err.Error()}
	}
	if s.Amortize {
		sched, err := e.Amortize(u, p)
		if err != nil {
			return batchResult{Error: err.Error()}
		}
		return batchResult{Schedule: &scheduleOutput{Params: sched.Params(), Rows: sched.Rows()}}
	}
	if u == tvmcalc.UnknownNone {
		return batchResult{Error: "no value left out to solve for"}
	}
	sum, err := e.Summarize(u, p)
	if err != nil {
		return batchResult{Error: err.Error()}
	}
	return batchResult{Summary: &sum}
}
