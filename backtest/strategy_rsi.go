package backtest

import (
	"math"

	"investormate/analysis"
	"investormate/model"
)

// RSIParams configures the RSI mean-reversion strategy.
type RSIParams struct {
	Period    int     `yaml:"period" json:"period"`
	BuyBelow  float64 `yaml:"buy_below" json:"buy_below"`
	SellAbove float64 `yaml:"sell_above" json:"sell_above"`
}

func (p RSIParams) withDefaults() RSIParams {
	if p.Period <= 0 {
		p.Period = 14
	}
	if p.BuyBelow <= 0 {
		p.BuyBelow = 30
	}
	if p.SellAbove <= 0 {
		p.SellAbove = 70
	}
	return p
}

// RSIStrategy buys the full cash balance when RSI drops below the oversold
// threshold and closes the position when it rises above the overbought
// threshold.
type RSIStrategy struct {
	Base
	params RSIParams
}

// NewRSIStrategy creates the strategy with the given parameters.
func NewRSIStrategy(p RSIParams) *RSIStrategy {
	return &RSIStrategy{params: p.withDefaults()}
}

func (s *RSIStrategy) Initialize() {}

func (s *RSIStrategy) OnData(bars []model.Bar) error {
	rsi := analysis.Last(analysis.RSI(model.Closes(bars), s.params.Period))
	if math.IsNaN(rsi) {
		return nil
	}

	if rsi < s.params.BuyBelow && !s.HasPosition() {
		return s.Buy(Size{Percent: 1})
	}
	if rsi > s.params.SellAbove && s.HasPosition() {
		s.SellAll()
	}
	return nil
}
