package schema

// EventType defines the category of an execution event.
type EventType uint8

const (
	EventOrderSubmitted EventType = iota
	EventOrderAccepted
	EventOrderRejected
	EventOrderPartiallyFilled
	EventOrderFilled
	EventOrderCancelled
	EventPositionOpened
	EventPositionUpdated
	EventPositionClosed
	EventRiskAlert
	_event_type_end
)

// EventTypeCount is the number of defined event types.
const EventTypeCount = int(_event_type_end)

func (t EventType) IsAvailable() bool {
	return t < _event_type_end
}

func (t EventType) String() string {
	switch t {
	case EventOrderSubmitted:
		return "ORDER_SUBMITTED"
	case EventOrderAccepted:
		return "ORDER_ACCEPTED"
	case EventOrderRejected:
		return "ORDER_REJECTED"
	case EventOrderPartiallyFilled:
		return "ORDER_PARTIALLY_FILLED"
	case EventOrderFilled:
		return "ORDER_FILLED"
	case EventOrderCancelled:
		return "ORDER_CANCELLED"
	case EventPositionOpened:
		return "POSITION_OPENED"
	case EventPositionUpdated:
		return "POSITION_UPDATED"
	case EventPositionClosed:
		return "POSITION_CLOSED"
	case EventRiskAlert:
		return "RISK_ALERT"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode is the coarse failure code attached to events.
type ErrorCode int32

const (
	ErrorCodeOK                 ErrorCode = 0
	ErrorCodeInvalidSymbol      ErrorCode = -1
	ErrorCodeInvalidQuantity    ErrorCode = -2
	ErrorCodeInvalidPrice       ErrorCode = -3
	ErrorCodeInsufficientMargin ErrorCode = -4
	ErrorCodeRiskLimitExceeded  ErrorCode = -5
	ErrorCodeOrderNotFound      ErrorCode = -6
	ErrorCodePositionNotFound   ErrorCode = -7
	ErrorCodeNetworkError       ErrorCode = -8
	ErrorCodeTimeout            ErrorCode = -9
	ErrorCodeRateLimited        ErrorCode = -10
	ErrorCodeInternalError      ErrorCode = -100
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeOK:
		return "OK"
	case ErrorCodeInvalidSymbol:
		return "INVALID_SYMBOL"
	case ErrorCodeInvalidQuantity:
		return "INVALID_QUANTITY"
	case ErrorCodeInvalidPrice:
		return "INVALID_PRICE"
	case ErrorCodeInsufficientMargin:
		return "INSUFFICIENT_MARGIN"
	case ErrorCodeRiskLimitExceeded:
		return "RISK_LIMIT_EXCEEDED"
	case ErrorCodeOrderNotFound:
		return "ORDER_NOT_FOUND"
	case ErrorCodePositionNotFound:
		return "POSITION_NOT_FOUND"
	case ErrorCodeNetworkError:
		return "NETWORK_ERROR"
	case ErrorCodeTimeout:
		return "TIMEOUT"
	case ErrorCodeRateLimited:
		return "RATE_LIMITED"
	case ErrorCodeInternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted to observers for every order and position transition.
// It is a plain value so sinks can buffer it in lock-free queues.
type Event struct {
	Type      EventType
	Error     ErrorCode
	OrderID   uint64
	Symbol    Symbol
	Price     Price
	Quantity  Quantity
	Timestamp int64
	Message   Str64
}
