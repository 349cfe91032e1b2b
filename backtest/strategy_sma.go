package backtest

import (
	"math"

	"investormate/analysis"
	"investormate/model"
)

// SMACrossParams configures the moving-average crossover strategy.
type SMACrossParams struct {
	Short int `yaml:"short" json:"short"`
	Long  int `yaml:"long" json:"long"`
}

func (p SMACrossParams) withDefaults() SMACrossParams {
	if p.Short <= 0 {
		p.Short = 10
	}
	if p.Long <= p.Short {
		p.Long = 30
	}
	return p
}

// SMACrossStrategy buys the full cash balance when the short SMA crosses
// above the long SMA and closes the position on the reverse cross.
type SMACrossStrategy struct {
	Base
	params SMACrossParams
}

// NewSMACrossStrategy creates the strategy with the given periods.
func NewSMACrossStrategy(p SMACrossParams) *SMACrossStrategy {
	return &SMACrossStrategy{params: p.withDefaults()}
}

func (s *SMACrossStrategy) Initialize() {}

func (s *SMACrossStrategy) OnData(bars []model.Bar) error {
	// One extra bar so the previous crossover state is defined.
	if len(bars) < s.params.Long+1 {
		return nil
	}

	closes := model.Closes(bars)
	short := analysis.SMA(closes, s.params.Short)
	long := analysis.SMA(closes, s.params.Long)

	i := len(bars) - 1
	if math.IsNaN(short[i-1]) || math.IsNaN(long[i-1]) {
		return nil
	}

	crossedUp := short[i-1] <= long[i-1] && short[i] > long[i]
	crossedDown := short[i-1] >= long[i-1] && short[i] < long[i]

	if crossedUp && !s.HasPosition() {
		return s.Buy(Size{Percent: 1})
	}
	if crossedDown && s.HasPosition() {
		s.SellAll()
	}
	return nil
}
