package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

// HandleOrder renders the details of one of the shopper's orders, with a cancel action only when the order
// can still be cancelled.
func (m Main) HandleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	order, err := m.orders.Order(r.Context(), sess.User.Email, id)
	if err != nil {
		m.logger.Error("Failed to get order",
			slog.Int64("orderID", id),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), orderStatus(err))
		return
	}

	if err := m.templates.ExecuteTemplate(w, "order_details", order); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleCancelOrder cancels one of the shopper's orders. The "confirm" form field must be "true", the
// browser sets it once the shopper confirmed. Orders that already shipped are rejected with 409 Conflict
// and left untouched. On success the refreshed orders list is rendered.
func (m Main) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	if r.FormValue("confirm") != "true" {
		http.Error(w, "Cancellation must be confirmed", http.StatusBadRequest)
		return
	}

	order, err := m.orders.CancelOrder(r.Context(), sess.User.Email, id)
	if err != nil {
		m.logger.Error("Failed to cancel order",
			slog.Int64("orderID", id),
			slog.String("status", string(order.Status)),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), orderStatus(err))
		return
	}
	m.logger.Info("Order cancelled", slog.Int64("orderID", id))

	orders, err := m.orders.Orders(r.Context(), sess.User.Email)
	if err != nil {
		m.logger.Error("Failed to get orders", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "orders_list", orders); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func orderStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
