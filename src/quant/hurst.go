package quant

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RSHurst estimates the Hurst exponent of a series by classical rescaled-
// range analysis: for geometrically spaced chunk sizes between minChunk and
// len/2, partition the series into non-overlapping chunks, compute each
// chunk's range of cumulative mean deviations over its sample standard
// deviation, average R/S per size, and take the slope of log(R/S) against
// log(size). Degenerate inputs (too short, zero-variance chunks, fewer than
// two usable sizes) yield NaN rather than an error.
func RSHurst(series []float64, minChunk, maxChunks int) float64 {
	n := len(series)
	if n < minChunk*2 {
		return math.NaN()
	}

	var logN, logRS []float64
	for _, size := range chunkSizes(minChunk, n/2, maxChunks) {
		numChunks := n / size
		var rs []float64
		for i := 0; i < numChunks; i++ {
			chunk := series[i*size : (i+1)*size]

			mean := stat.Mean(chunk, nil)
			var cum, zMax, zMin float64
			zMax = math.Inf(-1)
			zMin = math.Inf(1)
			for _, v := range chunk {
				cum += v - mean
				if cum > zMax {
					zMax = cum
				}
				if cum < zMin {
					zMin = cum
				}
			}

			s := math.Sqrt(stat.Variance(chunk, nil)) // sample std, ddof=1
			if s > 0 {
				rs = append(rs, (zMax-zMin)/s)
			}
		}
		if len(rs) > 0 {
			logN = append(logN, math.Log(float64(size)))
			logRS = append(logRS, math.Log(stat.Mean(rs, nil)))
		}
	}

	if len(logN) < 2 {
		return math.NaN()
	}
	_, h := stat.LinearRegression(logN, logRS, nil, false)
	return h
}

// RollingHurst applies RSHurst over a sliding window of closes, producing
// one estimate per tick once window samples are available. Earlier ticks
// are NaN.
func RollingHurst(closes []float64, window, minChunk, maxChunks int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	for idx := window; idx <= len(closes); idx++ {
		out[idx-1] = RSHurst(closes[idx-window:idx], minChunk, maxChunks)
	}
	return out
}

// chunkSizes returns the unique floors of count points spaced evenly in
// log10 between minChunk and maxSize, ascending.
func chunkSizes(minChunk, maxSize, count int) []int {
	if maxSize < minChunk || count < 2 {
		return nil
	}

	lo := math.Log10(float64(minChunk))
	hi := math.Log10(float64(maxSize))

	seen := make(map[int]bool)
	var sizes []int
	for i := 0; i < count; i++ {
		e := lo + (hi-lo)*float64(i)/float64(count-1)
		s := int(math.Floor(math.Pow(10, e)))
		if s >= 2 && !seen[s] {
			seen[s] = true
			sizes = append(sizes, s)
		}
	}
	sort.Ints(sizes)
	return sizes
}
