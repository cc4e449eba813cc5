package quant

import (
	"math"

	"market-sim/src/engine"
)

// LevelDepth is one depth entry in float price units.
type LevelDepth struct {
	Price  float64
	Volume float64
}

// DepthSide snapshots the top n price levels on one side in priority order,
// padding with (NaN, 0) when fewer levels exist so every tick's row has the
// same width.
func DepthSide(book *engine.OrderBook, side engine.Side, n int, tickSize float64) []LevelDepth {
	out := make([]LevelDepth, 0, n)
	for _, lvl := range book.Depth(side, n) {
		out = append(out, LevelDepth{
			Price:  engine.PriceOf(lvl.Price, tickSize),
			Volume: float64(lvl.Volume),
		})
	}
	for len(out) < n {
		out = append(out, LevelDepth{Price: math.NaN(), Volume: 0})
	}
	return out
}

// Volumes strips prices off a depth snapshot.
func Volumes(depth []LevelDepth) []float64 {
	out := make([]float64, len(depth))
	for i, d := range depth {
		out[i] = d.Volume
	}
	return out
}
