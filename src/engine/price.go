package engine

import "math"

// RoundToTick snaps a float price to the nearest tick and returns it in
// tick units, the fixed-point form the book keys levels by.
func RoundToTick(price, tickSize float64) int64 {
	return int64(math.Round(price / tickSize))
}

// PriceOf converts a fixed-point tick count back to a float price.
func PriceOf(ticks int64, tickSize float64) float64 {
	return float64(ticks) * tickSize
}
