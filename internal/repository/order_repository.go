package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/model"
)

// OrderRepo persists orders and their items. Orders are created in
// one transaction together with their items and the emptying of
// the cart, and their status only ever leaves PENDING through
// guarded updates, so terminal states are final.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// OrderItemDetail is an order line joined with the movie title for
// display.
type OrderItemDetail struct {
	MovieID      uint64          `json:"movie_id"`
	Title        string          `json:"title"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// OrderDetail is an order together with its lines, as returned to
// customers and admins.
type OrderDetail struct {
	ID          uint64            `json:"id"`
	UserID      uint64            `json:"user_id"`
	Status      string            `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemDetail `json:"items"`
}

// Place creates the order atomically: insert the PENDING order
// row, bulk-insert its items and delete the user's cart lines.
// Any failure rolls the whole transaction back, leaving no partial
// state.
func (r *OrderRepo) Place(ctx context.Context, userID uint64, items []model.OrderItem, total decimal.Decimal) (model.Order, error) {
	var o model.Order
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return o, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, status, total_amount) VALUES (?,?,?)",
		userID, model.OrderStatusPending, total)
	if err != nil {
		return o, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return o, err
	}

	if len(items) > 0 {
		q := "INSERT INTO order_items (order_id, movie_id, quantity, price_at_order) VALUES "
		args := make([]any, 0, len(items)*4)
		var sb strings.Builder
		sb.WriteString(q)
		for i, it := range items {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?,?,?,?)")
			args = append(args, orderID, it.MovieID, it.Quantity, it.PriceAtOrder)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return o, err
		}
	}

	// The cart is emptied in the same transaction that snapshots it.
	if _, err := tx.ExecContext(ctx,
		`DELETE ci FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 WHERE c.user_id = ?`, userID); err != nil {
		return o, err
	}

	err = tx.QueryRowContext(ctx,
		"SELECT id, user_id, status, total_amount, created_at, updated_at FROM orders WHERE id=?",
		orderID).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if err := tx.Commit(); err != nil {
		return o, err
	}
	committed = true
	return o, nil
}

// MovieIDsWithStatus returns the distinct movie ids that appear in
// the user's orders with the given status. Used at add-to-cart and
// checkout to skip already-owned movies and to block duplicate
// pending orders.
func (r *OrderRepo) MovieIDsWithStatus(ctx context.Context, userID uint64, status string) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT oi.movie_id
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.user_id = ? AND o.status = ?`, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetByID fetches a bare order row.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, status, total_amount, created_at, updated_at FROM orders WHERE id=? LIMIT 1",
		orderID).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

// GetDetailForUser loads one order with its items, enforcing
// ownership. ErrNotFound is returned when the order does not exist
// or belongs to someone else.
func (r *OrderRepo) GetDetailForUser(ctx context.Context, orderID, userID uint64) (OrderDetail, error) {
	var d OrderDetail
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, status, total_amount, created_at FROM orders WHERE id=? AND user_id=? LIMIT 1",
		orderID, userID).Scan(&d.ID, &d.UserID, &d.Status, &d.TotalAmount, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	d.Items, err = r.itemsByOrder(ctx, d.ID)
	return d, err
}

// ListByUser returns the user's orders, newest first, each with
// its items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, status, total_amount, created_at FROM orders WHERE user_id=? ORDER BY id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderDetail{}
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.Status, &d.TotalAmount, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.itemsByOrder(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	UserID *uint64
	Status string
	From   *time.Time
	To     *time.Time
}

// ListAll returns orders across all users matching the filter,
// newest first. Admin only.
func (r *OrderRepo) ListAll(ctx context.Context, f OrderFilter) ([]OrderDetail, error) {
	q := "SELECT id, user_id, status, total_amount, created_at FROM orders WHERE 1=1"
	args := []any{}
	if f.UserID != nil {
		q += " AND user_id=?"
		args = append(args, *f.UserID)
	}
	if f.Status != "" {
		q += " AND status=?"
		args = append(args, f.Status)
	}
	if f.From != nil {
		q += " AND created_at >= ?"
		args = append(args, *f.From)
	}
	if f.To != nil {
		q += " AND created_at <= ?"
		args = append(args, *f.To)
	}
	q += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderDetail{}
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.Status, &d.TotalAmount, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.itemsByOrder(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// CancelForUser moves the user's own PENDING order to CANCELLED.
// The status predicate makes the update a no-op for terminal
// orders, which is reported as ErrConflict.
func (r *OrderRepo) CancelForUser(ctx context.Context, orderID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=? AND user_id=? AND status=?",
		model.OrderStatusCancelled, orderID, userID, model.OrderStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM orders WHERE id=? AND user_id=?",
			orderID, userID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (r *OrderRepo) itemsByOrder(ctx context.Context, orderID uint64) ([]OrderItemDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT oi.movie_id, m.title, oi.quantity, oi.price_at_order
		 FROM order_items oi
		 JOIN movies m ON m.id = oi.movie_id
		 WHERE oi.order_id = ?
		 ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderItemDetail{}
	for rows.Next() {
		var it OrderItemDetail
		if err := rows.Scan(&it.MovieID, &it.Title, &it.Quantity, &it.PriceAtOrder); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
