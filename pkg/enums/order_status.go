package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// OrderStatus is the persisted workflow state of an order.
type OrderStatus int16

const (
	OrderStatusDraft     OrderStatus = 0
	OrderStatusSubmitted OrderStatus = 1
	OrderStatusFinished  OrderStatus = 2
	OrderStatusReceived  OrderStatus = 3
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusSubmitted,
	OrderStatusFinished,
	OrderStatusReceived,
}

var orderStatusNames = map[OrderStatus]string{
	OrderStatusDraft:     "draft",
	OrderStatusSubmitted: "submitted",
	OrderStatusFinished:  "finished",
	OrderStatusReceived:  "received",
}

// orderTransitions lists, per origin, every status an order may move to.
// Finishing a finished order is handled by the caller as a notes-only update.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:     {OrderStatusSubmitted, OrderStatusFinished},
	OrderStatusSubmitted: {OrderStatusDraft, OrderStatusFinished},
	OrderStatusFinished:  {OrderStatusSubmitted, OrderStatusReceived},
	OrderStatusReceived:  {},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition table allows s -> next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus accepts either the numeric code or the status name.
func ParseOrderStatus(value string) (OrderStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(value); err == nil {
		status := OrderStatus(n)
		if status.IsValid() {
			return status, nil
		}
		return 0, fmt.Errorf("invalid order status %q", value)
	}
	for status, name := range orderStatusNames {
		if name == value {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid order status %q", value)
}
