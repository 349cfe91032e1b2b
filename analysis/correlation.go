package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// DailyReturns computes the percent-change series of values; its length is
// len(values)-1 (no return exists for the first observation).
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (values[i]-values[i-1])/values[i-1])
	}
	return out
}

// Correlation computes the Pearson correlation of two return series. Both
// series must have the same, non-trivial length.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("series length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) < 2 {
		return 0, fmt.Errorf("need at least 2 observations, got %d", len(a))
	}
	return stats.Pearson(a, b)
}

// CorrelationMatrix computes the pairwise Pearson correlation matrix of the
// named return series. The result maps name -> name -> correlation, with
// the diagonal fixed at 1.
func CorrelationMatrix(series map[string][]float64) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64, len(series))
	for name := range series {
		out[name] = map[string]float64{name: 1}
	}
	for a, sa := range series {
		for b, sb := range series {
			if a >= b {
				continue
			}
			r, err := Correlation(sa, sb)
			if err != nil {
				return nil, fmt.Errorf("correlate %s/%s: %w", a, b, err)
			}
			out[a][b] = r
			out[b][a] = r
		}
	}
	return out, nil
}
