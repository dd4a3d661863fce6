package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/online-movie-store/internal/model"
)

// ErrActivePayment is returned when an order already has a payment
// attempt that is not FAILED; a new intent must not be created.
var ErrActivePayment = errors.New("order already has an active payment")

// PaymentRepo persists payment attempts and applies the webhook
// state transitions. The transition methods update order, payment
// and webhook_events rows in one transaction with status-guarded
// predicates, which is what makes duplicate provider callbacks
// harmless.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = "id, order_id, user_id, amount, provider_ref, status, created_at, updated_at"

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.ProviderRef,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts an INITIATED payment attempt for an order. At
// most one non-failed attempt may exist per order; the check and
// the insert run in one transaction with the order row locked, so
// two concurrent attempts serialize instead of both passing the
// count.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var orderID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM orders WHERE id=? FOR UPDATE", p.OrderID).Scan(&orderID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var active int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE order_id=? AND status IN (?,?)",
		p.OrderID, model.PaymentStatusInitiated, model.PaymentStatusSucceeded).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrActivePayment
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (order_id, user_id, amount, provider_ref, status) VALUES (?,?,?,?,?)",
		p.OrderID, p.UserID, p.Amount, p.ProviderRef, p.Status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	p.ID = uint64(id)
	return nil
}

// GetByProviderRef fetches a payment by its provider intent id.
func (r *PaymentRepo) GetByProviderRef(ctx context.Context, ref string) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE provider_ref=? LIMIT 1", ref)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// GetByID fetches a payment by primary key.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE id=? LIMIT 1", id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// EventProcessed reports whether a provider webhook event id has
// already been applied.
func (r *PaymentRepo) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM webhook_events WHERE event_id=?", eventID).Scan(&n)
	return n > 0, err
}

// MarkPaid applies a successful provider callback: order
// PENDING->PAID, payment INITIATED->SUCCEEDED and the event id
// recorded, all in one transaction. ErrConflict is returned when
// the guarded updates match nothing, i.e. the transition was
// already applied or the order is not PENDING.
func (r *PaymentRepo) MarkPaid(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error {
	return r.transition(ctx, orderID, paymentID, eventID, eventType,
		model.OrderStatusPaid, model.PaymentStatusSucceeded)
}

// MarkFailed applies a declined provider callback: order
// PENDING->FAILED, payment INITIATED->FAILED, event recorded.
func (r *PaymentRepo) MarkFailed(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error {
	return r.transition(ctx, orderID, paymentID, eventID, eventType,
		model.OrderStatusFailed, model.PaymentStatusFailed)
}

func (r *PaymentRepo) transition(ctx context.Context, orderID, paymentID uint64, eventID, eventType, orderStatus, paymentStatus string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=? AND status=?",
		orderStatus, orderID, model.OrderStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}

	res, err = tx.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=? AND status=?",
		paymentStatus, paymentID, model.PaymentStatusInitiated)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO webhook_events (event_id, event_type) VALUES (?,?)",
		eventID, eventType); err != nil {
		// Unique event_id: a concurrent delivery won the race.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// MarkRefunded moves a SUCCEEDED payment to REFUNDED. The order is
// left untouched; terminal orders are immutable.
func (r *PaymentRepo) MarkRefunded(ctx context.Context, paymentID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=? AND status=?",
		model.PaymentStatusRefunded, paymentID, model.PaymentStatusSucceeded)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// ListByUser returns the user's payment attempts, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE user_id=? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// PaymentFilter narrows the admin payment listing.
type PaymentFilter struct {
	UserID *uint64
	Status string
	From   *time.Time
	To     *time.Time
}

// ListAll returns payments across all users matching the filter.
// Admin only.
func (r *PaymentRepo) ListAll(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	q := "SELECT " + paymentCols + " FROM payments WHERE 1=1"
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
	return collectPayments(rows)
}

// ListEvents returns the most recently processed webhook events,
// newest first. Admin only; used to audit provider deliveries.
func (r *PaymentRepo) ListEvents(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, event_id, event_type, processed_at FROM webhook_events ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WebhookEvent{}
	for rows.Next() {
		var ev model.WebhookEvent
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.EventType, &ev.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func collectPayments(rows *sql.Rows) ([]model.Payment, error) {
	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
