package models_test

import (
	"errors"
	"testing"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

func TestOrderCancel(t *testing.T) {
	tests := []struct {
		status     models.OrderStatus
		wantCancel bool
	}{
		{models.OrderPending, true},
		{models.OrderProcessing, true},
		{models.OrderShipped, false},
		{models.OrderDelivered, false},
		{models.OrderCancelled, false},
		{models.OrderStatus("Returned"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := models.Order{ID: 1, Item: "Dress", Status: tt.status}
			if got := o.CanCancel(); got != tt.wantCancel {
				t.Errorf("CanCancel() = %v, want %v", got, tt.wantCancel)
			}

			got, err := o.Cancel()
			if tt.wantCancel {
				if err != nil {
					t.Fatalf("Cancel() error = %v", err)
				}
				if got.Status != models.OrderCancelled {
					t.Errorf("Cancel() status = %v, want %v", got.Status, models.OrderCancelled)
				}
				return
			}
			if !errors.Is(err, models.ErrInvalidTransition) {
				t.Errorf("Cancel() error = %v, want %v", err, models.ErrInvalidTransition)
			}
			if got.Status != tt.status {
				t.Errorf("Cancel() changed status to %v", got.Status)
			}
		})
	}
}

func TestOrderTransition(t *testing.T) {
	o := models.Order{Status: models.OrderPending}
	for _, next := range []models.OrderStatus{models.OrderProcessing, models.OrderShipped, models.OrderDelivered} {
		var err error
		o, err = o.Transition(next)
		if err != nil {
			t.Fatalf("Transition(%v) error = %v", next, err)
		}
	}

	if _, err := o.Transition(models.OrderPending); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Transition from Delivered error = %v, want %v", err, models.ErrInvalidTransition)
	}

	skip := models.Order{Status: models.OrderPending}
	if _, err := skip.Transition(models.OrderShipped); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Transition Pending to Shipped error = %v, want %v", err, models.ErrInvalidTransition)
	}
}
