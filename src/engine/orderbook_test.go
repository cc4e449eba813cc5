package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newBook() (*OrderBook, *IDAllocator) {
	return NewOrderBook(), &IDAllocator{}
}

func TestAddLimitRejectsNonPositiveVolume(t *testing.T) {
	book, ids := newBook()

	err := book.AddLimit(NewOrder(ids.Next(), SideBuy, 10000, 0, 0, false))
	require.ErrorIs(t, err, ErrNonPositiveVolume)

	err = book.AddLimit(NewOrder(ids.Next(), SideSell, 10000, -5, 0, false))
	require.ErrorIs(t, err, ErrNonPositiveVolume)

	assert.Equal(t, 0, book.Len())
}

func TestBestBidAsk(t *testing.T) {
	book, ids := newBook()

	_, ok := book.BestBid()
	assert.False(t, ok, "empty book has no best bid")
	_, ok = book.BestAsk()
	assert.False(t, ok, "empty book has no best ask")

	for _, p := range []int64{10050, 10060, 10040} {
		require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideBuy, p, 100, 0, false)))
	}
	for _, p := range []int64{10080, 10070, 10090} {
		require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideSell, p, 100, 0, false)))
	}

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(10060), bid)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10070), ask)
}

func TestPriceTimePriority(t *testing.T) {
	book, ids := newBook()

	first := NewOrder(ids.Next(), SideSell, 10070, 100, 0, false)
	second := NewOrder(ids.Next(), SideSell, 10070, 100, 0, false)
	require.NoError(t, book.AddLimit(first))
	require.NoError(t, book.AddLimit(second))

	// a buy too small for both must consume the earlier order first
	res := book.MatchMarket(SideBuy, 120, 1)
	assert.Equal(t, int64(120), res.Filled)

	assert.False(t, first.Active(), "first order should be fully filled")
	assert.Equal(t, 1, first.EndTick)
	assert.Equal(t, int64(0), first.Volume)

	assert.True(t, second.Active(), "second order should still rest")
	assert.Equal(t, int64(80), second.Volume)
}

func TestMatchMarketWalksLevels(t *testing.T) {
	book, ids := newBook()

	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideSell, 10080, 50, 0, false)))
	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideSell, 10070, 50, 0, false)))
	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideSell, 10090, 50, 0, false)))

	res := book.MatchMarket(SideBuy, 75, 2)
	assert.Equal(t, int64(75), res.Filled)

	// best remaining ask must be the partially consumed second level
	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10080), ask)
	assert.Equal(t, int64(75), book.RestingVolume())
}

func TestMatchMarketPartialFill(t *testing.T) {
	book, ids := newBook()

	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideBuy, 10050, 60, 0, false)))
	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideBuy, 10040, 40, 0, false)))

	res := book.MatchMarket(SideSell, 500, 3)
	assert.Equal(t, int64(100), res.Filled, "fill caps at total resting volume")

	_, ok := book.BestBid()
	assert.False(t, ok, "bid side should be exhausted")
	assert.Equal(t, 0, book.Len())
}

func TestMatchMarketEmptyBook(t *testing.T) {
	book, _ := newBook()
	res := book.MatchMarket(SideBuy, 100, 0)
	assert.Equal(t, int64(0), res.Filled)
	assert.Equal(t, int64(0), res.MakerFilled)
}

func TestMatchMarketMakerAttribution(t *testing.T) {
	book, ids := newBook()

	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideSell, 10070, 30, 0, true)))
	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideSell, 10070, 30, 0, false)))

	res := book.MatchMarket(SideBuy, 50, 1)
	assert.Equal(t, int64(50), res.Filled)
	assert.Equal(t, int64(30), res.MakerFilled, "only the maker quote portion counts")
}

func TestRemoveWhere(t *testing.T) {
	book, ids := newBook()

	quote := NewOrder(ids.Next(), SideBuy, 10050, 100, 0, true)
	noise := NewOrder(ids.Next(), SideBuy, 10050, 100, 0, false)
	require.NoError(t, book.AddLimit(quote))
	require.NoError(t, book.AddLimit(noise))

	book.RemoveWhere(func(o *Order) bool { return o.MakerQuote }, 1)

	assert.False(t, quote.Active())
	assert.Equal(t, 1, quote.EndTick)
	assert.True(t, noise.Active())
	assert.Equal(t, 1, book.Len())
}

func TestCancelRandomExtremes(t *testing.T) {
	book, ids := newBook()
	orders := make([]*Order, 0, 10)
	for i := 0; i < 10; i++ {
		o := NewOrder(ids.Next(), SideBuy, int64(10000+i), 10, 0, false)
		require.NoError(t, book.AddLimit(o))
		orders = append(orders, o)
	}

	rng := rand.New(rand.NewSource(1))

	book.CancelRandom(0, 1, rng)
	assert.Equal(t, 10, book.Len(), "p=0 cancels nothing")

	book.CancelRandom(1, 2, rng)
	assert.Equal(t, 0, book.Len(), "p=1 cancels everything")
	for _, o := range orders {
		assert.Equal(t, 2, o.EndTick)
	}
	_, ok := book.BestBid()
	assert.False(t, ok)
}

func TestVolumeConservation(t *testing.T) {
	book, ids := newBook()
	rng := rand.New(rand.NewSource(99))

	var added int64
	orders := make([]*Order, 0, 200)
	for i := 0; i < 200; i++ {
		side := SideBuy
		if i%2 == 1 {
			side = SideSell
		}
		price := int64(10000 + rng.Intn(21) - 10)
		vol := int64(1 + rng.Intn(50))
		o := NewOrder(ids.Next(), side, price, vol, 0, false)
		require.NoError(t, book.AddLimit(o))
		orders = append(orders, o)
		added += vol
	}

	var filled int64
	filled += book.MatchMarket(SideBuy, 300, 1).Filled
	filled += book.MatchMarket(SideSell, 450, 1).Filled
	book.CancelRandom(0.3, 2, rng)
	filled += book.MatchMarket(SideBuy, 200, 3).Filled

	var cancelled int64
	for _, o := range orders {
		if !o.Active() && o.Volume > 0 {
			cancelled += o.Volume
		}
	}

	assert.Equal(t, added, filled+cancelled+book.RestingVolume(),
		"fills + cancels + resting must account for every unit added")
}

func TestDepthAggregatesLevels(t *testing.T) {
	book, ids := newBook()

	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideBuy, 10050, 40, 0, false)))
	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideBuy, 10050, 60, 0, false)))
	require.NoError(t, book.AddLimit(NewOrder(ids.Next(), SideBuy, 10040, 25, 0, false)))

	levels := book.Depth(SideBuy, 5)
	require.Len(t, levels, 2)
	assert.Equal(t, Level{Price: 10050, Volume: 100}, levels[0])
	assert.Equal(t, Level{Price: 10040, Volume: 25}, levels[1])
}

func TestRoundToTick(t *testing.T) {
	assert.Equal(t, int64(10000), RoundToTick(100.004, 0.01))
	assert.Equal(t, int64(10001), RoundToTick(100.006, 0.01))
	assert.InDelta(t, 100.01, PriceOf(10001, 0.01), 1e-12)
}
