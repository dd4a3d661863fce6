package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/model"
)

// ErrMovieInCart is returned when the movie is already a line of
// the user's cart; quantity changes go through UpdateItemQuantity.
var ErrMovieInCart = errors.New("movie already in cart")

// CartRepo manages carts and their lines. A user has at most one
// cart (unique user_id) and a movie appears at most once per cart
// (unique cart_id+movie_id).
type CartRepo struct{ db *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine is a cart item joined with the current catalog state of
// its movie. CurrentPrice and IsAvailable reflect the catalog at
// read time; PriceAtAdd is what the line was added at.
type CartLine struct {
	ItemID       uint64          `json:"id"`
	MovieID      uint64          `json:"movie_id"`
	Title        string          `json:"title"`
	Quantity     int             `json:"quantity"`
	PriceAtAdd   decimal.Decimal `json:"price_at_add"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	IsAvailable  bool            `json:"is_available"`
	AddedAt      time.Time       `json:"added_at"`
}

// GetOrCreateForUser returns the user's cart, creating it on first use.
func (r *CartRepo) GetOrCreateForUser(ctx context.Context, userID uint64) (model.Cart, error) {
	var c model.Cart
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM carts WHERE user_id=? LIMIT 1",
		userID).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return c, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO carts (user_id) VALUES (?)", userID)
	if err != nil {
		// Lost a race with a concurrent first add; re-read.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return r.GetOrCreateForUser(ctx, userID)
		}
		return c, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return c, err
	}
	c.ID = uint64(id)
	c.UserID = userID
	c.CreatedAt = time.Now().UTC()
	return c, nil
}

// AddItem inserts a line for the movie at the given quantity,
// recording the current catalog price as price_at_add.
func (r *CartRepo) AddItem(ctx context.Context, cartID, movieID uint64, quantity int, priceAtAdd decimal.Decimal) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO cart_items (cart_id, movie_id, quantity, price_at_add) VALUES (?,?,?,?)",
		cartID, movieID, quantity, priceAtAdd)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrMovieInCart
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpdateItemQuantity changes the quantity of a line. The cart id
// scopes the update so users cannot touch other carts' lines.
func (r *CartRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID uint64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity=? WHERE id=? AND cart_id=?",
		quantity, itemID, cartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM cart_items WHERE id=? AND cart_id=?",
			itemID, cartID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// RemoveItem deletes one line from the cart.
func (r *CartRepo) RemoveItem(ctx context.Context, cartID, itemID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id=? AND cart_id=?", itemID, cartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every line from the cart.
func (r *CartRepo) Clear(ctx context.Context, cartID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id=?", cartID)
	return err
}

// LinesForUser loads the cart lines of a user joined with catalog
// data. A user without a cart simply has no lines.
func (r *CartRepo) LinesForUser(ctx context.Context, userID uint64) ([]CartLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ci.id, ci.movie_id, m.title, ci.quantity, ci.price_at_add, m.price, m.is_available, ci.added_at
		 FROM cart_items ci
		 JOIN carts c  ON c.id = ci.cart_id
		 JOIN movies m ON m.id = ci.movie_id
		 WHERE c.user_id = ?
		 ORDER BY ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CartLine{}
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ItemID, &l.MovieID, &l.Title, &l.Quantity,
			&l.PriceAtAdd, &l.CurrentPrice, &l.IsAvailable, &l.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
