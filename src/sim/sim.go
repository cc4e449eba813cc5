package sim

import (
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"market-sim/src/agents"
	"market-sim/src/config"
	"market-sim/src/engine"
	"market-sim/src/quant"
)

// Bar is one tick's OHLC record of the mid price.
type Bar struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Series holds the per-tick outputs of a run, append-only while the
// simulation owns them and read-only for the analytics afterwards.
type Series struct {
	Bars        []Bar
	Volumes     []int64   // traded volume per tick
	Spreads     []float64 // best ask - best bid, NaN when a side is missing
	DepthBid    [][]float64
	DepthAsk    [][]float64
	Inventory   []int64 // maker inventory at tick close
	MarketBuys  []int   // executed market buy orders per tick
	MarketSells []int
}

// Closes extracts the close-price series the trend signal and the
// estimators run on.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Simulation owns the book, the agents, the RNG stream and the output
// series for one run. Everything is single-threaded: each tick's book
// mutations and bookkeeping complete before the next tick starts, and no
// state is shared across runs.
type Simulation struct {
	cfg *config.Config
	log zerolog.Logger
	rng *rand.Rand

	ids    engine.IDAllocator
	book   *engine.OrderBook
	quoter *agents.Quoter
	flow   *agents.FlowGenerator

	mid       float64
	inventory int64
	trendHist []float64 // recent closes, trimmed to the trend window
	orders    []*engine.Order
	series    *Series
}

// New validates the configuration and assembles a run. The seed fixes the
// whole RNG stream — arrival counts, per-event draws, shuffles and
// cancellations — so equal seeds reproduce equal series.
func New(cfg *config.Config, seed uint64, log zerolog.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	s := &Simulation{
		cfg:    cfg,
		log:    log,
		rng:    rng,
		book:   engine.NewOrderBook(),
		quoter: agents.NewQuoter(cfg),
		flow:   agents.NewFlowGenerator(cfg, rng),
		mid:    cfg.InitialPrice,
		series: &Series{},
	}
	for i := 0; i < cfg.TrendWindow; i++ {
		s.trendHist = append(s.trendHist, cfg.InitialPrice)
	}
	return s, nil
}

// Run executes every tick and returns the finished series. Orders still
// resting at the end are stamped with the final tick so the diagnostic
// history has no open lifetimes.
func (s *Simulation) Run() *Series {
	for t := 0; t < s.cfg.Ticks; t++ {
		s.step(t)
	}
	for _, o := range s.orders {
		if o.Active() {
			o.EndTick = s.cfg.Ticks
		}
	}
	return s.series
}

func (s *Simulation) step(t int) {
	// retract the previous tick's maker quotes before re-quoting
	s.book.RemoveWhere(func(o *engine.Order) bool {
		return o.MakerQuote && o.StartTick < t
	}, t)

	q := s.quoter.Quotes(s.mid, s.inventory)
	s.rest(engine.SideBuy, q.BidPrice, q.BidVolume, t, true)
	s.rest(engine.SideSell, q.AskPrice, q.AskVolume, t, true)

	trend := s.flow.TrendSign(s.trendHist)
	events := s.flow.Events(t, trend)

	open := s.mid
	high, low := s.mid, s.mid
	var traded int64
	marketBuys, marketSells := 0, 0

	for _, ev := range events {
		intent := s.flow.Intent(ev, s.mid)

		if intent.Market {
			res := s.book.MatchMarket(intent.Side, intent.Volume, t)
			traded += res.Filled

			fill := res.Filled
			if s.cfg.MakerFillsOnly {
				fill = res.MakerFilled
			}
			if res.Filled > 0 {
				if intent.Side == engine.SideBuy {
					marketBuys++
					s.inventory -= fill
				} else {
					marketSells++
					s.inventory += fill
				}
			}
		} else {
			s.rest(intent.Side, intent.LimitPrice, intent.Volume, t, false)
		}

		s.clipInventory()
		s.updateMid()
		if s.mid > high {
			high = s.mid
		}
		if s.mid < low {
			low = s.mid
		}
	}

	spread := math.NaN()
	if bb, okB := s.book.BestBid(); okB {
		if ba, okA := s.book.BestAsk(); okA {
			spread = engine.PriceOf(ba, s.cfg.TickSize) - engine.PriceOf(bb, s.cfg.TickSize)
		}
	}

	depthBid := quant.Volumes(quant.DepthSide(s.book, engine.SideBuy, s.cfg.DepthLevels, s.cfg.TickSize))
	depthAsk := quant.Volumes(quant.DepthSide(s.book, engine.SideSell, s.cfg.DepthLevels, s.cfg.TickSize))

	s.book.CancelRandom(s.cfg.PCancel, t, s.rng)

	bar := Bar{Open: open, High: high, Low: low, Close: s.mid}
	s.series.Bars = append(s.series.Bars, bar)
	s.series.Volumes = append(s.series.Volumes, traded)
	s.series.Spreads = append(s.series.Spreads, spread)
	s.series.DepthBid = append(s.series.DepthBid, depthBid)
	s.series.DepthAsk = append(s.series.DepthAsk, depthAsk)
	s.series.Inventory = append(s.series.Inventory, s.inventory)
	s.series.MarketBuys = append(s.series.MarketBuys, marketBuys)
	s.series.MarketSells = append(s.series.MarketSells, marketSells)

	s.trendHist = append(s.trendHist, bar.Close)
	if len(s.trendHist) > s.cfg.TrendWindow {
		s.trendHist = s.trendHist[len(s.trendHist)-s.cfg.TrendWindow:]
	}

	s.log.Debug().
		Int("tick", t).
		Int("trend", trend).
		Int("events", len(events)).
		Int64("traded", traded).
		Float64("close", bar.Close).
		Int64("inventory", s.inventory).
		Msg("tick complete")
}

// rest creates and books a limit order. A zero size, which the maker's
// inventory scaling can truncate to, simply rests nothing.
func (s *Simulation) rest(side engine.Side, price, volume int64, t int, maker bool) {
	if volume <= 0 {
		return
	}
	o := engine.NewOrder(s.ids.Next(), side, price, volume, t, maker)
	if err := s.book.AddLimit(o); err != nil {
		return
	}
	s.orders = append(s.orders, o)
}

func (s *Simulation) clipInventory() {
	limit := s.cfg.Maker.InventoryCap
	if s.inventory > limit {
		s.inventory = limit
	} else if s.inventory < -limit {
		s.inventory = -limit
	}
}

// updateMid recomputes the quote-driven reference price: midpoint when both
// sides quote, the surviving side's best when only one does, unchanged when
// the book is empty.
func (s *Simulation) updateMid() {
	bb, okB := s.book.BestBid()
	ba, okA := s.book.BestAsk()
	switch {
	case okB && okA:
		s.mid = (engine.PriceOf(bb, s.cfg.TickSize) + engine.PriceOf(ba, s.cfg.TickSize)) / 2
	case okB:
		s.mid = engine.PriceOf(bb, s.cfg.TickSize)
	case okA:
		s.mid = engine.PriceOf(ba, s.cfg.TickSize)
	}
}

// Inventory returns the maker's position after the last processed tick.
func (s *Simulation) Inventory() int64 {
	return s.inventory
}

// Orders returns the full order history, terminated entries included, for
// diagnostics.
func (s *Simulation) Orders() []*engine.Order {
	return s.orders
}
