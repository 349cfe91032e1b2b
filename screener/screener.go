// Package screener evaluates a closed set of price-derived metrics over a
// symbol universe and filters/ranks the results.
package screener

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"investormate/analysis"
	"investormate/fetcher"
	"investormate/model"
)

// Metric names one screenable value. The set is closed: metrics are computed
// from price history only, with no dynamic field lookup.
type Metric string

const (
	MetricLastClose  Metric = "last_close"
	MetricReturn1M   Metric = "return_1m"
	MetricReturn3M   Metric = "return_3m"
	MetricVolatility Metric = "volatility"
	MetricRSI14      Metric = "rsi_14"
	MetricSMARatio   Metric = "sma_ratio"
	MetricAvgVolume  Metric = "avg_volume"
)

// Metrics lists every supported metric in display order.
func Metrics() []Metric {
	return []Metric{
		MetricLastClose, MetricReturn1M, MetricReturn3M,
		MetricVolatility, MetricRSI14, MetricSMARatio, MetricAvgVolume,
	}
}

func validMetric(m Metric) bool {
	switch m {
	case MetricLastClose, MetricReturn1M, MetricReturn3M,
		MetricVolatility, MetricRSI14, MetricSMARatio, MetricAvgVolume:
		return true
	}
	return false
}

// Filter keeps symbols whose metric lies within [Min, Max]. A nil bound is
// unbounded on that side.
type Filter struct {
	Metric Metric   `json:"metric" yaml:"metric"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func (f Filter) match(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if f.Min != nil && v < *f.Min {
		return false
	}
	if f.Max != nil && v > *f.Max {
		return false
	}
	return true
}

// Request describes one screening run.
type Request struct {
	Symbols   []string `json:"symbols" yaml:"symbols"`
	Filters   []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`
	RankBy    Metric   `json:"rank_by,omitempty" yaml:"rank_by,omitempty"`
	Ascending bool     `json:"ascending,omitempty" yaml:"ascending,omitempty"`
	Limit     int      `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Lookback window for history; defaults to 180 days.
	LookbackDays int `json:"lookback_days,omitempty" yaml:"lookback_days,omitempty"`
}

// Result is the evaluated metric set for one symbol. Err is set when the
// symbol could not be evaluated; such results never pass filters.
type Result struct {
	Symbol   string             `json:"symbol"`
	LastDate string             `json:"last_date,omitempty"`
	Values   map[Metric]float64 `json:"values,omitempty"`
	Err      string             `json:"error,omitempty"`
}

// Screener runs screening requests against a market data source.
type Screener struct {
	source fetcher.Source
	logger *slog.Logger
}

func New(source fetcher.Source, logger *slog.Logger) *Screener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screener{source: source, logger: logger}
}

// Screen evaluates every symbol in the request. Per-symbol fetch or
// computation failures are recorded on the result, not returned as errors;
// only an invalid request fails the whole call.
func (s *Screener) Screen(ctx context.Context, req Request) ([]Result, error) {
	if len(req.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols to screen")
	}
	for _, f := range req.Filters {
		if !validMetric(f.Metric) {
			return nil, fmt.Errorf("unknown metric %q", f.Metric)
		}
	}
	if req.RankBy != "" && !validMetric(req.RankBy) {
		return nil, fmt.Errorf("unknown rank metric %q", req.RankBy)
	}
	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = 180
	}
	end := time.Now()
	start := end.AddDate(0, 0, -lookback)

	var passed []Result
	var failed []Result
	for _, raw := range req.Symbols {
		symbol, err := fetcher.NormalizeTicker(raw)
		if err != nil {
			failed = append(failed, Result{Symbol: raw, Err: err.Error()})
			continue
		}
		bars, err := s.source.History(ctx, symbol, start, end)
		if err != nil {
			s.logger.Warn("screen: fetch failed", "symbol", symbol, "error", err)
			failed = append(failed, Result{Symbol: symbol, Err: err.Error()})
			continue
		}
		res, err := evaluate(symbol, bars)
		if err != nil {
			failed = append(failed, Result{Symbol: symbol, Err: err.Error()})
			continue
		}
		ok := true
		for _, f := range req.Filters {
			if !f.match(res.Values[f.Metric]) {
				ok = false
				break
			}
		}
		if ok {
			passed = append(passed, res)
		}
	}

	if req.RankBy != "" {
		rank := req.RankBy
		asc := req.Ascending
		sort.SliceStable(passed, func(i, j int) bool {
			a, b := passed[i].Values[rank], passed[j].Values[rank]
			if asc {
				return a < b
			}
			return a > b
		})
	}
	if req.Limit > 0 && len(passed) > req.Limit {
		passed = passed[:req.Limit]
	}
	return append(passed, failed...), nil
}

// evaluate computes the full metric set from daily bars.
func evaluate(symbol string, bars []model.Bar) (Result, error) {
	if len(bars) < 2 {
		return Result{}, fmt.Errorf("not enough history: %d bars", len(bars))
	}
	closes := model.Closes(bars)
	last := bars[len(bars)-1]

	values := map[Metric]float64{
		MetricLastClose:  round2(last.Close),
		MetricReturn1M:   round2(trailingReturn(closes, 21)),
		MetricReturn3M:   round2(trailingReturn(closes, 63)),
		MetricVolatility: round2(annualizedVolatility(closes)),
		MetricRSI14:      round2(analysis.Last(analysis.RSI(closes, 14))),
		MetricSMARatio:   round2(smaRatio(closes, 50)),
		MetricAvgVolume:  math.Round(avgVolume(bars, 21)),
	}
	return Result{
		Symbol:   symbol,
		LastDate: last.Date.Format("2006-01-02"),
		Values:   values,
	}, nil
}

// trailingReturn is the percent change over the last n bars, NaN when the
// window exceeds the available history.
func trailingReturn(closes []float64, n int) float64 {
	if len(closes) <= n {
		return math.NaN()
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return math.NaN()
	}
	return (closes[len(closes)-1] - base) / base * 100
}

// annualizedVolatility is the sample stdev of daily returns scaled to a
// yearly percentage.
func annualizedVolatility(closes []float64) float64 {
	returns := analysis.DailyReturns(closes)
	if len(returns) < 2 {
		return math.NaN()
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return math.NaN()
	}
	return sd * math.Sqrt(252) * 100
}

// smaRatio is last close over the n-bar simple moving average.
func smaRatio(closes []float64, n int) float64 {
	sma := analysis.Last(analysis.SMA(closes, n))
	if math.IsNaN(sma) || sma == 0 {
		return math.NaN()
	}
	return closes[len(closes)-1] / sma
}

func avgVolume(bars []model.Bar, n int) float64 {
	if n > len(bars) {
		n = len(bars)
	}
	vols := make([]float64, 0, n)
	for _, b := range bars[len(bars)-n:] {
		vols = append(vols, float64(b.Volume))
	}
	mean, err := stats.Mean(vols)
	if err != nil {
		return math.NaN()
	}
	return mean
}

func round2(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return math.Round(x*100) / 100
}
