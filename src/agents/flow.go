package agents

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"market-sim/src/config"
	"market-sim/src/engine"
)

// Event is one arriving order intent, before its volume/price/type draws.
type Event struct {
	Side          engine.Side
	TrendFollower bool
}

// Intent is a fully drawn order: either a market order of Volume or a limit
// order resting at LimitPrice.
type Intent struct {
	Side       engine.Side
	Volume     int64
	Market     bool
	LimitPrice int64
}

// FlowGenerator produces noise-trader and trend-follower flow. Arrival
// counts are Poisson draws pre-generated for the whole run, one per tick per
// stream; per-event volume/price/type are drawn lazily from the same RNG.
type FlowGenerator struct {
	cfg *config.Config
	rng *rand.Rand

	noiseBuy  []int64
	noiseSell []int64
	trendRaw  []int64 // masked by the trend sign each tick

	volBuy  distuv.Poisson
	volSell distuv.Poisson
}

func NewFlowGenerator(cfg *config.Config, rng *rand.Rand) *FlowGenerator {
	g := &FlowGenerator{
		cfg:       cfg,
		rng:       rng,
		noiseBuy:  poissonCounts(cfg.LambdaNoiseBuy, cfg.Ticks, rng),
		noiseSell: poissonCounts(cfg.LambdaNoiseSell, cfg.Ticks, rng),
		trendRaw:  poissonCounts(cfg.LambdaTrend, cfg.Ticks, rng),
		volBuy:    distuv.Poisson{Lambda: cfg.MeanVolumeBuy, Src: rng},
		volSell:   distuv.Poisson{Lambda: cfg.MeanVolumeSell, Src: rng},
	}
	return g
}

func poissonCounts(lambda float64, n int, rng *rand.Rand) []int64 {
	counts := make([]int64, n)
	if lambda <= 0 {
		return counts
	}
	dist := distuv.Poisson{Lambda: lambda, Src: rng}
	for i := range counts {
		counts[i] = int64(dist.Rand())
	}
	return counts
}

// TrendSign compares the mean of the last window closes against the mean of
// the window ending one tick earlier: +1 rising, -1 falling, 0 flat.
func (g *FlowGenerator) TrendSign(closes []float64) int {
	w := g.cfg.TrendWindow
	if len(closes) < 2 {
		return 0
	}

	now := closes
	if len(now) > w {
		now = now[len(now)-w:]
	}
	prev := closes[:len(closes)-1]
	if len(prev) > w {
		prev = prev[len(prev)-w:]
	}

	diff := stat.Mean(now, nil) - stat.Mean(prev, nil)
	switch {
	case diff > 0:
		return 1
	case diff < 0:
		return -1
	default:
		return 0
	}
}

// Events builds the tick's arrivals and shuffles them. Intra-tick ordering
// is deliberately randomized so neither noise nor trend flow gets a
// systematic head start; the shuffle consumes the injected RNG stream, so a
// fixed seed reproduces the exact ordering.
func (g *FlowGenerator) Events(tick, trend int) []Event {
	nb, ns := g.noiseBuy[tick], g.noiseSell[tick]
	var tb, ts int64
	if trend > 0 {
		tb = g.trendRaw[tick]
	} else if trend < 0 {
		ts = g.trendRaw[tick]
	}

	events := make([]Event, 0, nb+ns+tb+ts)
	for i := int64(0); i < nb; i++ {
		events = append(events, Event{Side: engine.SideBuy})
	}
	for i := int64(0); i < ns; i++ {
		events = append(events, Event{Side: engine.SideSell})
	}
	for i := int64(0); i < tb; i++ {
		events = append(events, Event{Side: engine.SideBuy, TrendFollower: true})
	}
	for i := int64(0); i < ts; i++ {
		events = append(events, Event{Side: engine.SideSell, TrendFollower: true})
	}

	g.rng.Shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})
	return events
}

// Intent draws the event's volume, limit price and order type. The limit
// price sits a uniform fraction of delta below mid for buys and above for
// sells, snapped to the tick grid.
func (g *FlowGenerator) Intent(ev Event, mid float64) Intent {
	var (
		dist distuv.Poisson
		pMkt float64
	)
	if ev.Side == engine.SideBuy {
		dist, pMkt = g.volBuy, g.cfg.PMarketBuy
	} else {
		dist, pMkt = g.volSell, g.cfg.PMarketSell
	}

	var volume int64
	if dist.Lambda > 0 {
		volume = int64(dist.Rand())
	}
	if volume < 1 {
		volume = 1
	}

	jitter := g.rng.Float64() * g.cfg.LimitDelta
	var limit float64
	if ev.Side == engine.SideBuy {
		limit = mid * (1 - jitter)
	} else {
		limit = mid * (1 + jitter)
	}

	return Intent{
		Side:       ev.Side,
		Volume:     volume,
		Market:     g.rng.Float64() < pMkt,
		LimitPrice: engine.RoundToTick(limit, g.cfg.TickSize),
	}
}
