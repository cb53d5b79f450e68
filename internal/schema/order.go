package schema

// Side buy, sell. The numeric values are part of the flat boundary contract.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
	_side_end
)

func (s Side) IsAvailable() bool {
	return s < _side_end
}

// Opposite returns the side that offsets s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign returns +1 for buys and -1 for sells.
func (s Side) Sign() int64 {
	if s == SideSell {
		return -1
	}
	return 1
}

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

// OrderType market, limit, stop market, stop limit, trailing stop
type OrderType uint8

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
	OrderTypeTrailingStop
	_order_type_end
)

func (t OrderType) IsAvailable() bool {
	return t < _order_type_end
}

// NeedsPrice reports whether the type carries a limit price.
func (t OrderType) NeedsPrice() bool {
	return t == OrderTypeLimit || t == OrderTypeStopLimit
}

// NeedsStopPrice reports whether the type carries a trigger price.
func (t OrderType) NeedsStopPrice() bool {
	return t == OrderTypeStopMarket || t == OrderTypeStopLimit
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStopMarket:
		return "STOP_MARKET"
	case OrderTypeStopLimit:
		return "STOP_LIMIT"
	case OrderTypeTrailingStop:
		return "TRAILING_STOP"
	default:
		return "UNKNOWN"
	}
}

// TimeInForce GTC, IOC, FOK, GTD. Stored as order metadata only.
type TimeInForce uint8

const (
	TimeInForceGTC TimeInForce = iota
	TimeInForceIOC
	TimeInForceFOK
	TimeInForceGTD
	_time_in_force_end
)

func (f TimeInForce) IsAvailable() bool {
	return f < _time_in_force_end
}

// OrderStatus pending, open, partially filled, filled, cancelled, rejected, expired
type OrderStatus uint8

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusOpen
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusRejected
	OrderStatusExpired
	_order_status_end
)

func (s OrderStatus) IsAvailable() bool {
	return s < _order_status_end
}

// IsActive reports whether the order can still trade or be cancelled.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusOpen || s == OrderStatusPartiallyFilled
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusOpen:
		return "OPEN"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRejected:
		return "REJECTED"
	case OrderStatusExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// PriceLevel is one rung of the book ladder.
type PriceLevel struct {
	Price      Price
	Quantity   Quantity
	OrderCount uint32
	_          uint32
}

// Order is the engine's record of a single order. Identity is ID.
type Order struct {
	ID          uint64
	CreatedAt   int64
	UpdatedAt   int64
	Symbol      Symbol
	Price       Price
	StopPrice   Price
	Quantity    Quantity
	FilledQty   Quantity
	Side        Side
	Type        OrderType
	TimeInForce TimeInForce
	Status      OrderStatus
}

func (o *Order) Remaining() Quantity {
	return o.Quantity - o.FilledQty
}

func (o *Order) IsActive() bool {
	return o.Status.IsActive()
}

// Position is the net holding for one symbol. Quantity is signed: long > 0, short < 0.
type Position struct {
	Symbol        Symbol
	Quantity      Quantity
	AvgEntryPrice Price
	UnrealizedPnL Price
	RealizedPnL   Price
	OpenedAt      int64
	UpdatedAt     int64
}

func (p Position) IsLong() bool  { return p.Quantity > 0 }
func (p Position) IsShort() bool { return p.Quantity < 0 }
func (p Position) IsFlat() bool  { return p.Quantity == 0 }

// Notional is the entry value of the position.
func (p Position) Notional() Notional {
	n, _ := NotionalOf(p.AvgEntryPrice, p.Quantity)
	return n
}

// MarkToMarket returns the unrealized P&L of the position at price.
func (p Position) MarkToMarket(price Price) Price {
	pnl, _ := MulDiv(int64(price-p.AvgEntryPrice), int64(p.Quantity), QuantityScale)
	return Price(pnl)
}

// MarketTick is a top-of-book update crossing from the feed thread.
type MarketTick struct {
	Timestamp int64
	Symbol    Symbol
	Bid       Price
	Ask       Price
	Last      Price
	BidSize   Quantity
	AskSize   Quantity
	Sequence  uint64
}

// Spread returns ask - bid.
func (t MarketTick) Spread() Price {
	return t.Ask - t.Bid
}

// Mid returns the midpoint of bid and ask.
func (t MarketTick) Mid() Price {
	return (t.Bid + t.Ask) / 2
}

// CommandKind selects the operation an OrderCommand requests.
type CommandKind uint8

const (
	CommandSubmit CommandKind = iota + 1
	CommandCancel
	CommandCancelAll
	CommandClosePosition
	CommandCloseAll
)

// OrderCommand is an order request crossing from a strategy thread.
type OrderCommand struct {
	Kind        CommandKind
	Side        Side
	Type        OrderType
	TimeInForce TimeInForce
	Symbol      Symbol
	Quantity    Quantity
	Price       Price
	StopPrice   Price
	OrderID     uint64
	ClientTag   uint64
}
