package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/btree"
	"golang.org/x/exp/rand"
)

var ErrNonPositiveVolume = errors.New("order volume must be positive")

// priceLevel is one FIFO queue of resting order ids at a single price.
type priceLevel struct {
	price int64
	queue []uint64 // fifo ordering for time priority
}

type bidLevel struct {
	level *priceLevel
}

// bids sort descending so the tree minimum is the best (highest) bid
func (b *bidLevel) Less(than btree.Item) bool {
	return b.level.price > than.(*bidLevel).level.price
}

type askLevel struct {
	level *priceLevel
}

func (a *askLevel) Less(than btree.Item) bool {
	return a.level.price < than.(*askLevel).level.price
}

// OrderBook keeps one btree of price levels per side plus an id registry
// for O(1) lookup during fills and cancels.
//
// Invariants: every registered id sits in exactly one level queue; a price
// level exists iff its queue is non-empty; every resting order has
// Volume > 0. Violations are programming errors and panic.
type OrderBook struct {
	bids   *btree.BTree // best = highest price
	asks   *btree.BTree // best = lowest price
	orders map[uint64]*Order
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:   btree.New(32),
		asks:   btree.New(32),
		orders: make(map[uint64]*Order),
	}
}

func (ob *OrderBook) tree(side Side) *btree.BTree {
	if side == SideBuy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) key(side Side, price int64) btree.Item {
	if side == SideBuy {
		return &bidLevel{level: &priceLevel{price: price}}
	}
	return &askLevel{level: &priceLevel{price: price}}
}

func levelOf(item btree.Item) *priceLevel {
	switch it := item.(type) {
	case *bidLevel:
		return it.level
	case *askLevel:
		return it.level
	default:
		panic(fmt.Sprintf("orderbook: unexpected btree item %T", item))
	}
}

// AddLimit rests the order on its side's price level, creating the level if
// needed. The order id must already be allocated by the caller.
func (ob *OrderBook) AddLimit(o *Order) error {
	if o.Volume <= 0 {
		return ErrNonPositiveVolume
	}

	tree := ob.tree(o.Side)
	item := ob.key(o.Side, o.Price)

	existing := tree.Get(item)
	if existing != nil {
		lvl := levelOf(existing)
		lvl.queue = append(lvl.queue, o.ID)
	} else {
		lvl := levelOf(item)
		lvl.queue = append(lvl.queue, o.ID)
		tree.ReplaceOrInsert(item)
	}

	ob.orders[o.ID] = o
	return nil
}

func (ob *OrderBook) BestBid() (int64, bool) {
	item := ob.bids.Min()
	if item == nil {
		return 0, false
	}
	return levelOf(item).price, true
}

func (ob *OrderBook) BestAsk() (int64, bool) {
	item := ob.asks.Min()
	if item == nil {
		return 0, false
	}
	return levelOf(item).price, true
}

// FillResult reports the aggregate outcome of one market order.
// MakerFilled is the portion that executed against market-maker quotes.
type FillResult struct {
	Filled      int64
	MakerFilled int64
}

// MatchMarket consumes the side opposite the aggressor in price-time
// priority: best level first, FIFO within a level. Fully filled resting
// orders are stamped with the tick and dropped from queue and registry;
// emptied levels are dropped from the tree. The returned fill may be less
// than requested when the book runs out — partial fills are not an error.
func (ob *OrderBook) MatchMarket(side Side, volume int64, tick int) FillResult {
	var res FillResult
	tree := ob.tree(side.Opposite())

	remaining := volume
	for remaining > 0 {
		item := tree.Min()
		if item == nil {
			break
		}
		lvl := levelOf(item)

		for len(lvl.queue) > 0 && remaining > 0 {
			oid := lvl.queue[0]
			o, ok := ob.orders[oid]
			if !ok {
				panic(fmt.Sprintf("orderbook: id %d queued at price %d but missing from registry", oid, lvl.price))
			}

			take := remaining
			if take > o.Volume {
				take = o.Volume
			}
			o.Volume -= take
			remaining -= take
			res.Filled += take
			if o.MakerQuote {
				res.MakerFilled += take
			}

			if o.Volume == 0 {
				o.EndTick = tick
				lvl.queue = lvl.queue[1:]
				delete(ob.orders, oid)
			}
		}

		// edge case: drop the emptied price level before moving on
		if len(lvl.queue) == 0 {
			tree.Delete(item)
		}
	}

	return res
}

// CancelRandom cancels every resting order independently with probability p.
// Orders are visited in ascending id order so a fixed RNG seed reproduces
// the exact same cancellation set.
func (ob *OrderBook) CancelRandom(p float64, tick int, rng *rand.Rand) {
	for _, oid := range ob.activeIDs() {
		if rng.Float64() < p {
			ob.remove(ob.orders[oid], tick)
		}
	}
}

// RemoveWhere cancels every resting order for which pred holds, exactly as
// a full fill would. Used to retract stale market-maker quotes each tick.
func (ob *OrderBook) RemoveWhere(pred func(*Order) bool, tick int) {
	for _, oid := range ob.activeIDs() {
		if o := ob.orders[oid]; pred(o) {
			ob.remove(o, tick)
		}
	}
}

func (ob *OrderBook) remove(o *Order, tick int) {
	tree := ob.tree(o.Side)
	item := tree.Get(ob.key(o.Side, o.Price))
	if item == nil {
		panic(fmt.Sprintf("orderbook: order %d registered at price %d but level missing", o.ID, o.Price))
	}

	lvl := levelOf(item)
	for i, oid := range lvl.queue {
		if oid == o.ID {
			lvl.queue = append(lvl.queue[:i], lvl.queue[i+1:]...)
			break
		}
	}
	if len(lvl.queue) == 0 {
		tree.Delete(item)
	}

	o.EndTick = tick
	delete(ob.orders, o.ID)
}

// Level is an aggregated depth entry: one price and its total resting volume.
type Level struct {
	Price  int64
	Volume int64
}

// Depth returns up to n levels on the given side in priority order.
func (ob *OrderBook) Depth(side Side, n int) []Level {
	out := make([]Level, 0, n)
	ob.tree(side).Ascend(func(item btree.Item) bool {
		if len(out) >= n {
			return false
		}
		lvl := levelOf(item)
		var total int64
		for _, oid := range lvl.queue {
			o, ok := ob.orders[oid]
			if !ok {
				panic(fmt.Sprintf("orderbook: id %d queued at price %d but missing from registry", oid, lvl.price))
			}
			total += o.Volume
		}
		out = append(out, Level{Price: lvl.price, Volume: total})
		return true
	})
	return out
}

func (ob *OrderBook) Order(id uint64) (*Order, bool) {
	o, ok := ob.orders[id]
	return o, ok
}

// Len reports the number of resting orders.
func (ob *OrderBook) Len() int {
	return len(ob.orders)
}

// RestingVolume sums the remaining volume across every resting order.
func (ob *OrderBook) RestingVolume() int64 {
	var total int64
	for _, o := range ob.orders {
		total += o.Volume
	}
	return total
}

func (ob *OrderBook) activeIDs() []uint64 {
	ids := make([]uint64, 0, len(ob.orders))
	for id := range ob.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
