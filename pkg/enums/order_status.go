package enums

import "fmt"

// OrderStatus represents the payment lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusExpired           OrderStatus = "expired"
	OrderStatusPaymentFailed     OrderStatus = "payment_failed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusPartiallyRefunded,
	OrderStatusRefunded,
	OrderStatusExpired,
	OrderStatusPaymentFailed,
}

// orderStatusTransitions is the forward-only edge set of the order state machine.
// Refund states are reachable only from paid (or partially_refunded for the
// partial -> full path). Terminal states have no outgoing edges.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusPaid,
		OrderStatusExpired,
		OrderStatusPaymentFailed,
	},
	OrderStatusPaid: {
		OrderStatusPartiallyRefunded,
		OrderStatusRefunded,
	},
	OrderStatusPartiallyRefunded: {
		OrderStatusRefunded,
	},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is recognized.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (s OrderStatus) IsTerminal() bool {
	return len(orderStatusTransitions[s]) == 0
}

// CanTransitionTo reports whether the state machine allows moving to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts a raw string into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", value)
}
