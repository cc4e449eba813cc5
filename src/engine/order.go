package engine

type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side a market order of this side consumes.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// edge case: prices stored as int64 counts of the tick size to avoid
// floating-point precision errors in the price-level keys
type Order struct {
	ID         uint64
	Side       Side
	Price      int64 // price in tick units
	Volume     int64 // remaining volume while resting
	StartTick  int
	EndTick    int // -1 while active; fill/cancel tick once terminated
	MakerQuote bool
}

func NewOrder(id uint64, side Side, price, volume int64, startTick int, makerQuote bool) *Order {
	return &Order{
		ID:         id,
		Side:       side,
		Price:      price,
		Volume:     volume,
		StartTick:  startTick,
		EndTick:    -1,
		MakerQuote: makerQuote,
	}
}

func (o *Order) Active() bool {
	return o.EndTick < 0
}

// IDAllocator hands out monotonic, run-unique order ids. Each simulation
// owns its own allocator so independent runs never share id space.
type IDAllocator struct {
	next uint64
}

func (a *IDAllocator) Next() uint64 {
	a.next++
	return a.next
}
