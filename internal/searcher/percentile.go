package searcher

import (
	"math"

	"github.com/adamcrume/robust-binary-search/internal/rangemap"
)

// truncateNonNegative converts a value already known to be >= 0 apart
// from floating-point noise: negative values saturate to 0, positive
// values truncate toward zero.
func truncateNonNegative(f float64) int {
	if f <= 0 {
		return 0
	}
	return int(f)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// confidencePercentileNearest finds the atomic index whose cumulative
// mass through that index (inclusive) is nearest percentile, and returns
// that index and its cumulative mass.
func confidencePercentileNearest(weights *rangemap.RangeMap[float64], percentile float64) (int, float64) {
	sum := 0.0
	index := 0
	bestIndex := 0
	bestPercentile := math.Inf(-1)
	weights.Ranges(func(w rangemap.Entry[float64]) {
		delta := float64(w.Len) * w.Value
		offset := truncateNonNegative((percentile-sum)/w.Value - 0.5)
		ix := index + minInt(w.Len-1, offset)
		ixPercentile := sum + float64(ix-index+1)*w.Value
		if math.Abs(ixPercentile-percentile) < math.Abs(bestPercentile-percentile) {
			bestIndex = ix
			bestPercentile = ixPercentile
		}
		sum += delta
		index += w.Len
	})
	return bestIndex, bestPercentile
}

// confidencePercentileCeil finds the smallest atomic index whose
// cumulative mass through that index (inclusive) is >= percentile. If no
// such index exists, it returns the last index and the total mass.
func confidencePercentileCeil(weights *rangemap.RangeMap[float64], percentile float64) (int, float64) {
	sum := 0.0
	index := 0
	found := false
	resultIx := 0
	resultValue := 0.0
	weights.Ranges(func(w rangemap.Entry[float64]) {
		if found {
			return
		}
		delta := float64(w.Len) * w.Value
		if sum+delta >= percentile {
			ix := index + truncateNonNegative((percentile-sum)/w.Value-1e-9)
			resultIx = ix
			resultValue = sum + float64(ix-index+1)*w.Value
			found = true
			return
		}
		sum += delta
		index += w.Len
	})
	if found {
		return resultIx, resultValue
	}
	return weights.Len() - 1, sum
}
