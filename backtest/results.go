package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"investormate/analysis"
)

// Metrics is the fixed set of performance numbers derived from a run.
// Percentages are in percent units, rounded to two decimals.
type Metrics struct {
	TotalReturn  float64 `json:"total_return"`
	CAGR         float64 `json:"cagr"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Volatility   float64 `json:"volatility"`
	TotalTrades  int     `json:"total_trades"`
	WinningTrades int    `json:"winning_trades"`
	LosingTrades int     `json:"losing_trades"`
	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	TotalPnL     float64 `json:"total_pnl"`

	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
}

// Results derives performance metrics from a completed run. Metrics are
// computed once on first access and memoized; the underlying run is never
// mutated, so the cache is safe.
type Results struct {
	run     *Run
	metrics *Metrics
}

// NewResults wraps a raw run bundle.
func NewResults(run *Run) *Results {
	return &Results{run: run}
}

// Run exposes the raw result bundle.
func (r *Results) Run() *Run {
	return r.run
}

// EquityCurve returns the per-bar equity snapshots in bar order.
func (r *Results) EquityCurve() []EquityPoint {
	return r.run.EquityHistory
}

// Trades returns the executed trade log in execution order.
func (r *Results) Trades() []Trade {
	return r.run.Trades
}

// tradingDaysPerYear is the annualization factor for daily bars.
const tradingDaysPerYear = 252

// Metrics computes (once) and returns all performance metrics.
func (r *Results) Metrics() *Metrics {
	if r.metrics != nil {
		return r.metrics
	}

	run := r.run
	m := &Metrics{
		InitialCapital: run.InitialCapital,
		FinalEquity:    round2(run.FinalEquity),
	}

	if run.InitialCapital != 0 {
		m.TotalReturn = round2((run.FinalEquity - run.InitialCapital) / run.InitialCapital * 100)
	}

	equity := make([]float64, len(run.EquityHistory))
	for i, p := range run.EquityHistory {
		equity[i] = p.Equity
	}
	returns := analysis.DailyReturns(equity)

	days := len(run.EquityHistory)
	if days > 0 && run.FinalEquity > 0 && run.InitialCapital > 0 {
		years := float64(days) / tradingDaysPerYear
		m.CAGR = round2((math.Pow(run.FinalEquity/run.InitialCapital, 1/years) - 1) * 100)
	}

	if len(returns) > 1 {
		sd, _ := stats.StandardDeviationSample(returns)
		m.Volatility = round2(sd * math.Sqrt(tradingDaysPerYear) * 100)
		if sd > 0 {
			mean, _ := stats.Mean(returns)
			m.SharpeRatio = round2(mean / sd * math.Sqrt(tradingDaysPerYear))
		}
	}

	m.MaxDrawdown = round2(maxDrawdown(returns) * 100)

	// Only SELL trades count toward trade statistics: a buy that is later
	// sold forms one logical round-trip trade.
	var totalWins, totalLosses, totalPnL float64
	for _, t := range run.Trades {
		if t.Type != TradeSell {
			continue
		}
		m.TotalTrades++
		totalPnL += t.PnL
		if t.PnL > 0 {
			m.WinningTrades++
			totalWins += t.PnL
		} else if t.PnL < 0 {
			m.LosingTrades++
			totalLosses += -t.PnL
		}
	}
	m.TotalPnL = round2(totalPnL)
	if m.TotalTrades > 0 {
		m.WinRate = round2(float64(m.WinningTrades) / float64(m.TotalTrades) * 100)
	}
	if m.WinningTrades > 0 {
		m.AvgWin = round2(totalWins / float64(m.WinningTrades))
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = round2(totalLosses / float64(m.LosingTrades))
	}
	if totalLosses > 0 {
		m.ProfitFactor = round2(totalWins / totalLosses)
	}

	r.metrics = m
	return m
}

// maxDrawdown computes the deepest peak-to-trough decline, as a negative
// fraction, of the cumulative-return curve cumprod(1+returns).
func maxDrawdown(returns []float64) float64 {
	var maxDD float64
	cum := 1.0
	runningMax := math.Inf(-1)
	for _, ret := range returns {
		cum *= 1 + ret
		if cum > runningMax {
			runningMax = cum
		}
		if runningMax > 0 {
			if dd := (cum - runningMax) / runningMax; dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// TotalReturn is the percent gain of final equity over initial capital.
func (r *Results) TotalReturn() float64 { return r.Metrics().TotalReturn }

// CAGR is the compound annual growth rate, in percent.
func (r *Results) CAGR() float64 { return r.Metrics().CAGR }

// SharpeRatio is the annualized mean/stdev of daily returns (0% risk-free).
func (r *Results) SharpeRatio() float64 { return r.Metrics().SharpeRatio }

// MaxDrawdown is the deepest equity decline, as a negative percentage.
func (r *Results) MaxDrawdown() float64 { return r.Metrics().MaxDrawdown }

// Volatility is the annualized standard deviation of daily returns, in
// percent.
func (r *Results) Volatility() float64 { return r.Metrics().Volatility }

// TotalTrades is the number of completed (round-trip) trades.
func (r *Results) TotalTrades() int { return r.Metrics().TotalTrades }

// WinRate is the percentage of completed trades with positive PnL.
func (r *Results) WinRate() float64 { return r.Metrics().WinRate }

// AvgWin is the mean profit of winning trades.
func (r *Results) AvgWin() float64 { return r.Metrics().AvgWin }

// AvgLoss is the mean loss of losing trades, as a positive number.
func (r *Results) AvgLoss() float64 { return r.Metrics().AvgLoss }

// ProfitFactor is gross wins divided by gross losses (0 with no losses).
func (r *Results) ProfitFactor() float64 { return r.Metrics().ProfitFactor }

// Summary renders all metrics as a deterministic multi-line report. Dollar
// amounts use en-US digit grouping.
func (r *Results) Summary() string {
	m := r.Metrics()
	p := message.NewPrinter(language.English)
	var b strings.Builder

	rule := strings.Repeat("=", 60)
	b.WriteString("\nBacktest Results Summary\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("Performance Metrics:\n")
	fmt.Fprintf(&b, "  Total Return:        %10.2f%%\n", m.TotalReturn)
	fmt.Fprintf(&b, "  CAGR:                %10.2f%%\n", m.CAGR)
	fmt.Fprintf(&b, "  Sharpe Ratio:        %10.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "  Max Drawdown:        %10.2f%%\n", m.MaxDrawdown)
	fmt.Fprintf(&b, "  Volatility:          %10.2f%%\n\n", m.Volatility)

	b.WriteString("Capital:\n")
	p.Fprintf(&b, "  Initial Capital:     $%10.2f\n", m.InitialCapital)
	p.Fprintf(&b, "  Final Equity:        $%10.2f\n", m.FinalEquity)
	p.Fprintf(&b, "  Total P&L:           $%10.2f\n\n", m.TotalPnL)

	b.WriteString("Trade Statistics:\n")
	fmt.Fprintf(&b, "  Total Trades:        %10d\n", m.TotalTrades)
	fmt.Fprintf(&b, "  Winning Trades:      %10d\n", m.WinningTrades)
	fmt.Fprintf(&b, "  Losing Trades:       %10d\n", m.LosingTrades)
	fmt.Fprintf(&b, "  Win Rate:            %10.2f%%\n", m.WinRate)
	p.Fprintf(&b, "  Avg Win:             $%10.2f\n", m.AvgWin)
	p.Fprintf(&b, "  Avg Loss:            $%10.2f\n", m.AvgLoss)
	fmt.Fprintf(&b, "  Profit Factor:       %10.2f\n\n", m.ProfitFactor)

	b.WriteString(rule + "\n")
	return b.String()
}

// String summarizes the results on one line.
func (r *Results) String() string {
	m := r.Metrics()
	return fmt.Sprintf("Results(return=%.2f%%, sharpe=%.2f, trades=%d)",
		m.TotalReturn, m.SharpeRatio, m.TotalTrades)
}
