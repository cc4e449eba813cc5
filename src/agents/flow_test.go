package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"market-sim/src/config"
	"market-sim/src/engine"
)

func newGenerator(cfg *config.Config, seed uint64) *FlowGenerator {
	return NewFlowGenerator(cfg, rand.New(rand.NewSource(seed)))
}

func TestTrendSign(t *testing.T) {
	cfg := config.Default()
	g := newGenerator(cfg, 1)

	assert.Equal(t, 1, g.TrendSign([]float64{100, 100.5}))
	assert.Equal(t, -1, g.TrendSign([]float64{100, 99.5}))
	assert.Equal(t, 0, g.TrendSign([]float64{100, 100}))
	assert.Equal(t, 0, g.TrendSign([]float64{100}), "too little history is flat")
}

func TestEventsFlatTrendYieldsNoTrendFlow(t *testing.T) {
	cfg := config.Default()
	cfg.LambdaNoiseBuy = 0
	cfg.LambdaNoiseSell = 0
	g := newGenerator(cfg, 2)

	for tick := 0; tick < cfg.Ticks; tick++ {
		assert.Empty(t, g.Events(tick, 0))
	}
}

func TestEventsTrendGating(t *testing.T) {
	cfg := config.Default()
	cfg.LambdaNoiseBuy = 0
	cfg.LambdaNoiseSell = 0
	g := newGenerator(cfg, 3)

	total := 0
	for tick := 0; tick < 50; tick++ {
		for _, ev := range g.Events(tick, 1) {
			assert.Equal(t, engine.SideBuy, ev.Side, "rising trend puts all trend flow on the buy side")
			assert.True(t, ev.TrendFollower)
			total++
		}
	}
	assert.Positive(t, total)

	total = 0
	for tick := 50; tick < 100; tick++ {
		for _, ev := range g.Events(tick, -1) {
			assert.Equal(t, engine.SideSell, ev.Side)
			total++
		}
	}
	assert.Positive(t, total)
}

func TestIntentDraws(t *testing.T) {
	cfg := config.Default()
	cfg.PMarketBuy = 0
	cfg.PMarketSell = 1
	g := newGenerator(cfg, 4)

	for i := 0; i < 100; i++ {
		buy := g.Intent(Event{Side: engine.SideBuy}, 100.0)
		assert.GreaterOrEqual(t, buy.Volume, int64(1), "volume floors at 1")
		assert.False(t, buy.Market, "p_market_buy=0 always rests")
		assert.LessOrEqual(t, buy.LimitPrice, engine.RoundToTick(100.0, cfg.TickSize),
			"buy limits sit at or below mid")

		sell := g.Intent(Event{Side: engine.SideSell}, 100.0)
		assert.True(t, sell.Market, "p_market_sell=1 always crosses")
		assert.GreaterOrEqual(t, sell.LimitPrice, engine.RoundToTick(100.0, cfg.TickSize))
	}
}

func TestIntentJitterBounded(t *testing.T) {
	cfg := config.Default()
	g := newGenerator(cfg, 5)

	floor := engine.RoundToTick(100.0*(1-cfg.LimitDelta), cfg.TickSize)
	for i := 0; i < 200; i++ {
		in := g.Intent(Event{Side: engine.SideBuy}, 100.0)
		assert.GreaterOrEqual(t, in.LimitPrice, floor, "jitter never exceeds delta")
	}
}

func TestFlowDeterministicPerSeed(t *testing.T) {
	cfg := config.Default()
	a := newGenerator(cfg, 7)
	b := newGenerator(cfg, 7)

	for tick := 0; tick < 20; tick++ {
		evA := a.Events(tick, 1)
		evB := b.Events(tick, 1)
		require.Equal(t, evA, evB)
		for i := range evA {
			require.Equal(t, a.Intent(evA[i], 100.0), b.Intent(evB[i], 100.0))
		}
	}
}
