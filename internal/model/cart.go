package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the transient, user-owned collection of prospective
// purchases.  One cart exists per user and is created lazily on
// the first add.  Its items are deleted when an order is placed.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the cart (unique).
//  CreatedAt – creation timestamp.
type Cart struct {
	ID        uint64    // carts.id
	UserID    uint64    // carts.user_id
	CreatedAt time.Time // carts.created_at
}

// CartItem is a (cart, movie) line.  PriceAtAdd records the
// catalog price when the line was created and is shown to the
// user; checkout re-reads the catalog price (see OrderItem).
// A movie appears at most once per cart.
//
// Fields:
//  ID         – primary key identifier.
//  CartID     – owning cart.
//  MovieID    – referenced movie.
//  Quantity   – number of licenses, at least 1.
//  PriceAtAdd – catalog price when the item was added.
//  AddedAt    – creation timestamp.
type CartItem struct {
	ID         uint64          // cart_items.id
	CartID     uint64          // cart_items.cart_id
	MovieID    uint64          // cart_items.movie_id
	Quantity   int             // cart_items.quantity
	PriceAtAdd decimal.Decimal // cart_items.price_at_add
	AddedAt    time.Time       // cart_items.added_at
}
