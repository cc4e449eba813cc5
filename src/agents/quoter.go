package agents

import (
	"math"

	"market-sim/src/config"
	"market-sim/src/engine"
)

// Quote is one tick's pair of market-maker quote intents. The quoter never
// touches the book itself; the simulation retracts the previous pair and
// rests these as fresh limit orders.
type Quote struct {
	BidPrice  int64
	AskPrice  int64
	BidVolume int64
	AskVolume int64
}

// Quoter computes inventory-aware quotes: the spread widens with absolute
// inventory, both quotes skew against the position, and the side that would
// grow exposure quotes smaller size.
type Quoter struct {
	maker    config.Maker
	tickSize float64
}

func NewQuoter(cfg *config.Config) *Quoter {
	return &Quoter{maker: cfg.Maker, tickSize: cfg.TickSize}
}

func (q *Quoter) Quotes(mid float64, inventory int64) Quote {
	inv := float64(inventory)

	halfSpread := (q.maker.BaseSpread + q.maker.SpreadGamma*math.Abs(inv)) / 2
	skew := q.maker.SkewAlpha * inv // positive inventory shifts both quotes down

	// size floor of 0.1 keeps the maker quoting even at the inventory cap
	scaleBid := math.Max(0.1, 1-q.maker.VolumeBeta*math.Max(0, inv))
	scaleAsk := math.Max(0.1, 1-q.maker.VolumeBeta*math.Max(0, -inv))

	return Quote{
		BidPrice:  engine.RoundToTick(mid*(1-halfSpread)-skew, q.tickSize),
		AskPrice:  engine.RoundToTick(mid*(1+halfSpread)-skew, q.tickSize),
		BidVolume: int64(q.maker.BaseVolume * scaleBid),
		AskVolume: int64(q.maker.BaseVolume * scaleAsk),
	}
}
