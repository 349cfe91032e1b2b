package backtest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the declarative shape of a backtest run, read from a YAML
// file by the CLI or bound from JSON by the API.
type YAMLConfig struct {
	Backtest struct {
		Symbol         string  `yaml:"symbol" json:"symbol"`
		Start          string  `yaml:"start" json:"start"`
		End            string  `yaml:"end" json:"end"`
		InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
		Commission     float64 `yaml:"commission" json:"commission"`
	} `yaml:"backtest" json:"backtest"`

	Strategy struct {
		Type   string         `yaml:"type" json:"type"`
		Params map[string]any `yaml:"params" json:"params"`
	} `yaml:"strategy" json:"strategy"`
}

// RunConfig is a validated, runnable backtest configuration.
type RunConfig struct {
	Symbol         string
	Start          string
	End            string
	InitialCapital float64
	Commission     float64
	StrategyType   string
	NewStrategy    func() Strategy
}

// LoadRunConfig reads and validates a YAML backtest configuration,
// resolving the named built-in strategy.
func LoadRunConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	return ParseRunConfig(yc)
}

// ParseRunConfig validates a declarative config and resolves the named
// built-in strategy.
func ParseRunConfig(yc YAMLConfig) (RunConfig, error) {
	cfg := RunConfig{
		Symbol:         yc.Backtest.Symbol,
		Start:          yc.Backtest.Start,
		End:            yc.Backtest.End,
		InitialCapital: yc.Backtest.InitialCapital,
		Commission:     yc.Backtest.Commission,
	}
	if cfg.Symbol == "" {
		return RunConfig{}, fmt.Errorf("backtest.symbol is required")
	}
	if cfg.Start == "" || cfg.End == "" {
		return RunConfig{}, fmt.Errorf("backtest.start and backtest.end are required")
	}

	factory, typ, err := strategyFactory(yc.Strategy.Type, yc.Strategy.Params)
	if err != nil {
		return RunConfig{}, err
	}
	cfg.StrategyType = typ
	cfg.NewStrategy = factory
	return cfg, nil
}

// strategyFactory resolves a built-in strategy by name; params are decoded
// through a YAML round trip so each strategy keeps its own typed params.
func strategyFactory(typ string, params map[string]any) (func() Strategy, string, error) {
	decode := func(out any) {
		if params == nil {
			return
		}
		b, _ := yaml.Marshal(params)
		_ = yaml.Unmarshal(b, out)
	}

	switch typ {
	case "", "sma_cross":
		var p SMACrossParams
		decode(&p)
		return func() Strategy { return NewSMACrossStrategy(p) }, "sma_cross", nil
	case "rsi":
		var p RSIParams
		decode(&p)
		return func() Strategy { return NewRSIStrategy(p) }, "rsi", nil
	default:
		return nil, "", fmt.Errorf("unknown strategy.type: %s", typ)
	}
}

// StrategyTypes lists the built-in strategy names accepted by
// LoadRunConfig.
func StrategyTypes() []string {
	return []string{"sma_cross", "rsi"}
}
