package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

// Validation failures of the checkout flow. Handlers map these to 400.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMovieUnavailable = errors.New("movie is not available")
	ErrAlreadyPurchased = errors.New("all movies in the cart are already purchased")
	ErrPendingOrder     = errors.New("movie already has a pending order")
)

// CartReader is the slice of the cart repository checkout needs.
type CartReader interface {
	LinesForUser(ctx context.Context, userID uint64) ([]repository.CartLine, error)
}

// OrderStore is the slice of the order repository checkout needs. Place must
// atomically create the order with its items and empty the user's cart.
type OrderStore interface {
	MovieIDsWithStatus(ctx context.Context, userID uint64, status string) ([]uint64, error)
	Place(ctx context.Context, userID uint64, items []model.OrderItem, total decimal.Decimal) (model.Order, error)
}

// OrderService turns a cart into an immutable PENDING order.
type OrderService struct {
	carts  CartReader
	orders OrderStore
}

func NewOrderService(carts CartReader, orders OrderStore) *OrderService {
	return &OrderService{carts: carts, orders: orders}
}

// Place validates the user's cart and snapshots it into an order.
//
// Rules, in order:
//   - the cart must have at least one line;
//   - every line's movie must still be available in the catalog;
//   - movies the user already owns (a PAID order) are skipped, and if that
//     skips everything the checkout fails;
//   - a movie already sitting in another PENDING order of the user blocks
//     the checkout, so the same title cannot be paid twice concurrently.
//
// Each order item snapshots the catalog price at checkout, not the price
// recorded when the line was added to the cart. The total is computed from
// the snapshot, so sum(items) == total holds by construction. Order
// creation, item insertion and cart emptying happen in one transaction
// inside the store.
func (s *OrderService) Place(ctx context.Context, userID uint64) (model.Order, error) {
	var o model.Order

	lines, err := s.carts.LinesForUser(ctx, userID)
	if err != nil {
		return o, err
	}
	if len(lines) == 0 {
		return o, ErrEmptyCart
	}
	for _, l := range lines {
		if !l.IsAvailable {
			return o, fmt.Errorf("%w: %s", ErrMovieUnavailable, l.Title)
		}
	}

	paid, err := s.orders.MovieIDsWithStatus(ctx, userID, model.OrderStatusPaid)
	if err != nil {
		return o, err
	}
	owned := toSet(paid)
	toOrder := make([]repository.CartLine, 0, len(lines))
	for _, l := range lines {
		if !owned[l.MovieID] {
			toOrder = append(toOrder, l)
		}
	}
	if len(toOrder) == 0 {
		return o, ErrAlreadyPurchased
	}

	pending, err := s.orders.MovieIDsWithStatus(ctx, userID, model.OrderStatusPending)
	if err != nil {
		return o, err
	}
	inPending := toSet(pending)
	for _, l := range toOrder {
		if inPending[l.MovieID] {
			return o, fmt.Errorf("%w: %s", ErrPendingOrder, l.Title)
		}
	}

	items := make([]model.OrderItem, 0, len(toOrder))
	for _, l := range toOrder {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, model.OrderItem{
			MovieID:      l.MovieID,
			Quantity:     qty,
			PriceAtOrder: l.CurrentPrice,
		})
	}
	total := model.OrderTotal(items)

	return s.orders.Place(ctx, userID, items, total)
}

func toSet(ids []uint64) map[uint64]bool {
	m := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
