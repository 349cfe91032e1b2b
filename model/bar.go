package model

import "time"

// Bar is one OHLCV observation for one symbol at daily granularity.
// Bars are immutable once fetched; a series is chronologically ordered
// and unique by date.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Change returns the close-to-open move of the bar.
func (b Bar) Change() float64 {
	return b.Close - b.Open
}

// ChangePercent returns the close-to-open move as a percentage of the open.
func (b Bar) ChangePercent() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}

// Closes extracts the close series from a bar series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
