package quant

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// WeightedLiquidity collapses per-tick depth rows into one scalar per tick:
// level i contributes depth/i, summed across both sides, so volume near the
// touch dominates.
func WeightedLiquidity(bid, ask [][]float64) []float64 {
	out := make([]float64, len(bid))
	for t := range bid {
		var sum float64
		for i, v := range bid[t] {
			sum += v / float64(i+1)
		}
		for i, v := range ask[t] {
			sum += v / float64(i+1)
		}
		out[t] = sum
	}
	return out
}

// SlopeLiquidity fits resting volume against level index per side and tick.
// The bid slope is negated (steeper decay away from the touch means thinner
// liquidity) and averaged with the ask slope into one combined series.
func SlopeLiquidity(bid, ask [][]float64) []float64 {
	out := make([]float64, len(bid))
	if len(bid) == 0 {
		return out
	}

	levels := make([]float64, len(bid[0]))
	for i := range levels {
		levels[i] = float64(i + 1)
	}

	for t := range bid {
		_, slopeBid := stat.LinearRegression(levels, bid[t], nil, false)
		_, slopeAsk := stat.LinearRegression(levels, ask[t], nil, false)
		out[t] = (-slopeBid + slopeAsk) / 2
	}
	return out
}

// ResilienceTimes scans a liquidity series for shocks, i.e. ticks where
// liquidity drops below threshold times the previous tick's value, and for
// each shock records how many ticks it took to recover to threshold times
// the pre-shock baseline. Horizon caps the forward scan; no recovery within
// it leaves NaN.
func ResilienceTimes(liquidity []float64, threshold float64, horizon int) []float64 {
	n := len(liquidity)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	for t := 1; t < n; t++ {
		if liquidity[t] >= threshold*liquidity[t-1] {
			continue
		}
		baseline := liquidity[t-1]
		limit := horizon
		if n-t < limit {
			limit = n - t
		}
		for tau := 1; tau < limit; tau++ {
			if liquidity[t+tau] >= threshold*baseline {
				out[t] = float64(tau)
				break
			}
		}
	}
	return out
}
