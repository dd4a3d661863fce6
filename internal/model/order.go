package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.  PENDING is the only non-terminal state; once an
// order reaches PAID, FAILED or CANCELLED it never changes again.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusFailed    = "FAILED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is the immutable, priced record of a checkout.  It is
// created from the user's cart inside a single transaction and
// its TotalAmount always equals the sum of its items'
// price_at_order * quantity.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who placed the order.
//  Status      – state of the order (see OrderStatus* constants).
//  TotalAmount – total price for all items.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Order struct {
	ID          uint64          // orders.id
	UserID      uint64          // orders.user_id
	Status      string          // orders.status
	TotalAmount decimal.Decimal // orders.total_amount
	CreatedAt   time.Time       // orders.created_at
	UpdatedAt   time.Time       // orders.updated_at
}

// OrderItem is an immutable copy of one cart line at order time.
// PriceAtOrder decouples historical orders from later catalog
// price changes.
//
// Fields:
//  ID           – primary key identifier.
//  OrderID      – owning order.
//  MovieID      – purchased movie.
//  Quantity     – number of licenses.
//  PriceAtOrder – catalog price captured at checkout.
//  CreatedAt    – creation timestamp.
type OrderItem struct {
	ID           uint64          // order_items.id
	OrderID      uint64          // order_items.order_id
	MovieID      uint64          // order_items.movie_id
	Quantity     int             // order_items.quantity
	PriceAtOrder decimal.Decimal // order_items.price_at_order
	CreatedAt    time.Time       // order_items.created_at
}

// OrderTotal sums price_at_order * quantity over the given items.
// It is the single place where an order's total is computed so
// the stored total and the recomputed one cannot drift.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		total = total.Add(it.PriceAtOrder.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// IsTerminalOrderStatus reports whether the status admits no
// further transitions.
func IsTerminalOrderStatus(s string) bool {
	switch s {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}
