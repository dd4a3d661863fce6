package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses.  INITIATED is the only state the provider
// callback may move away from; SUCCEEDED can later become
// REFUNDED through the admin refund flow.
const (
	PaymentStatusInitiated = "INITIATED"
	PaymentStatusSucceeded = "SUCCEEDED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Payment records one payment attempt against an order.
// ProviderRef is the provider-side payment intent identifier and
// is unique; webhook callbacks are matched against it.
//
// Fields:
//  ID          – primary key identifier.
//  OrderID     – order the attempt pays for.
//  UserID      – user who owns the order.
//  Amount      – charged amount (equals the order total).
//  ProviderRef – provider payment intent id (unique).
//  Status      – state of the attempt (see PaymentStatus* constants).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Payment struct {
	ID          uint64          // payments.id
	OrderID     uint64          // payments.order_id
	UserID      uint64          // payments.user_id
	Amount      decimal.Decimal // payments.amount
	ProviderRef string          // payments.provider_ref
	Status      string          // payments.status
	CreatedAt   time.Time       // payments.created_at
	UpdatedAt   time.Time       // payments.updated_at
}

// WebhookEvent marks a provider callback as processed.  The
// provider event id is unique, which makes webhook handling
// idempotent across duplicate deliveries.
type WebhookEvent struct {
	ID          uint64    `json:"id"`           // webhook_events.id
	EventID     string    `json:"event_id"`     // webhook_events.event_id
	EventType   string    `json:"event_type"`   // webhook_events.event_type
	ProcessedAt time.Time `json:"processed_at"` // webhook_events.processed_at
}
