package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

// MemoryOrders implements the OrderStore interface with the fixture orders every shopper starts with.
// Each user gets a private copy on first access; cancellations last until the process exits.
//
// The backend has no order endpoints yet, this store stands in for them.
type MemoryOrders struct {
	mu     sync.Mutex
	orders map[string][]models.Order
}

// NewMemoryOrders creates an empty MemoryOrders.
func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{
		orders: make(map[string][]models.Order),
	}
}

// FixtureOrders returns the orders a new shopper starts with.
func FixtureOrders() []models.Order {
	return []models.Order{
		{
			ID:                1001,
			Item:              "Blue Summer Dress",
			Status:            models.OrderShipped,
			Date:              "2025-12-05",
			Price:             89.99,
			Quantity:          1,
			TrackingNumber:    "TRK123456789",
			EstimatedDelivery: "2025-12-10",
		},
		{
			ID:       1002,
			Item:     "Black Leather Jacket",
			Status:   models.OrderProcessing,
			Date:     "2025-12-07",
			Price:    199.99,
			Quantity: 1,
		},
		{
			ID:       1003,
			Item:     "White Sneakers",
			Status:   models.OrderPending,
			Date:     "2025-12-08",
			Price:    79.99,
			Quantity: 2,
		},
	}
}

func (m *MemoryOrders) userOrders(email string) []models.Order {
	orders, ok := m.orders[email]
	if !ok {
		orders = FixtureOrders()
		m.orders[email] = orders
	}
	return orders
}

// Orders returns the orders of the user identified by email.
func (m *MemoryOrders) Orders(_ context.Context, email string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.userOrders(email)), nil
}

// Order returns a single order of the user.
func (m *MemoryOrders) Order(_ context.Context, email string, id int64) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := m.userOrders(email)
	idx := slices.IndexFunc(orders, func(o models.Order) bool { return o.ID == id })
	if idx == -1 {
		return models.Order{}, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	return orders[idx], nil
}

// CancelOrder cancels an order of the user. Orders that are neither pending nor processing are left
// untouched and models.ErrInvalidTransition is returned.
func (m *MemoryOrders) CancelOrder(_ context.Context, email string, id int64) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := m.userOrders(email)
	idx := slices.IndexFunc(orders, func(o models.Order) bool { return o.ID == id })
	if idx == -1 {
		return models.Order{}, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}

	cancelled, err := orders[idx].Cancel()
	if err != nil {
		return orders[idx], err
	}
	orders[idx] = cancelled
	return cancelled, nil
}
