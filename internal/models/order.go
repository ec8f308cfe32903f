package models

import (
	"errors"
	"fmt"
)

// Order is a purchase shown in the orders sidebar and the order details modal. Zero values of the optional
// fields mean the detail is unknown and is not displayed.
type Order struct {
	ID     int64       `json:"id"`
	Item   string      `json:"item"`
	Status OrderStatus `json:"status"`
	Date   string      `json:"date"`

	Price             float64 `json:"price,omitempty"`
	Quantity          int     `json:"quantity,omitempty"`
	TrackingNumber    string  `json:"trackingNumber,omitempty"`
	EstimatedDelivery string  `json:"estimatedDelivery,omitempty"`
}

// OrderStatus is the lifecycle state of an order. The set is open: statuses unknown to this package are
// displayed as-is and allow no transition.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

var (
	// ErrInvalidTransition is returned when an order cannot move to the requested status.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrOrderNotFound is returned when an order id is unknown for the user.
	ErrOrderNotFound = errors.New("order not found")
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// CanTransition reports whether s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanCancel reports whether the order may still be cancelled, which is only the case while it is pending
// or processing.
func (o Order) CanCancel() bool {
	return o.Status.CanTransition(OrderCancelled)
}

// Transition returns a copy of the order moved to next. The order is returned unchanged together with
// ErrInvalidTransition if the lifecycle does not allow the move.
func (o Order) Transition(next OrderStatus) (Order, error) {
	if !o.Status.CanTransition(next) {
		return o, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	return o, nil
}

// Cancel is Transition(OrderCancelled).
func (o Order) Cancel() (Order, error) {
	return o.Transition(OrderCancelled)
}
