package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/iliyamo/online-movie-store/internal/client"
	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/queue"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

// Webhook event types sent by the payment provider.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Payment flow failures. Handlers map these to 4xx responses.
var (
	ErrOrderNotPending  = errors.New("order is not pending")
	ErrProviderDeclined = errors.New("payment provider declined the request")
	ErrBadSignature     = errors.New("invalid webhook signature")
	ErrBadPayload       = errors.New("malformed webhook payload")
	ErrUnknownReference = errors.New("unknown provider reference")
)

// PaymentStore is the slice of the payment repository the service needs.
// MarkPaid/MarkFailed apply the order+payment transition and record the
// event id atomically, returning repository.ErrConflict when the
// transition was already applied.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (model.Payment, error)
	GetByProviderRef(ctx context.Context, ref string) (model.Payment, error)
	EventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkPaid(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error
	MarkFailed(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error
	MarkRefunded(ctx context.Context, paymentID uint64) error
}

// OrderReader loads bare orders for validation.
type OrderReader interface {
	GetByID(ctx context.Context, orderID uint64) (model.Order, error)
}

// UserReader resolves the recipient address for confirmation mails.
type UserReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// PaymentService owns payment initiation, webhook processing and refunds.
type PaymentService struct {
	store         PaymentStore
	orders        OrderReader
	users         UserReader
	provider      client.PaymentProvider
	publisher     EmailPublisher
	webhookSecret string
	currency      string
}

func NewPaymentService(store PaymentStore, orders OrderReader, users UserReader, provider client.PaymentProvider, publisher EmailPublisher, webhookSecret, currency string) *PaymentService {
	return &PaymentService{
		store:         store,
		orders:        orders,
		users:         users,
		provider:      provider,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		currency:      currency,
	}
}

// Initiate creates a payment intent at the provider for the user's own
// PENDING order and persists the attempt as INITIATED. A provider failure
// is recorded as a FAILED attempt and surfaced as ErrProviderDeclined, not
// as a server error.
func (s *PaymentService) Initiate(ctx context.Context, orderID, userID uint64) (*client.PaymentIntent, model.Payment, error) {
	var p model.Payment

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, p, err
	}
	if o.UserID != userID {
		return nil, p, repository.ErrForbidden
	}
	if o.Status != model.OrderStatusPending {
		return nil, p, ErrOrderNotPending
	}

	intent, err := s.provider.CreateIntent(ctx, o.TotalAmount, s.currency, o.ID)
	if err != nil {
		log.Printf("payment: create intent for order %d failed: %v", o.ID, err)
		// Keep the declined attempt in history; the synthetic reference
		// keeps the provider_ref unique constraint satisfied.
		failed := model.Payment{
			OrderID:     o.ID,
			UserID:      o.UserID,
			Amount:      o.TotalAmount,
			ProviderRef: "declined-" + uuid.NewString(),
			Status:      model.PaymentStatusFailed,
		}
		if cerr := s.store.Create(ctx, &failed); cerr != nil && !errors.Is(cerr, repository.ErrActivePayment) {
			log.Printf("payment: record declined attempt failed: %v", cerr)
		}
		return nil, p, ErrProviderDeclined
	}

	p = model.Payment{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Amount:      o.TotalAmount,
		ProviderRef: intent.ID,
		Status:      model.PaymentStatusInitiated,
	}
	if err := s.store.Create(ctx, &p); err != nil {
		return nil, p, err
	}
	return intent, p, nil
}

// webhookEvent mirrors the provider's callback payload. The order id rides
// in the intent metadata placed there by Initiate.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Metadata struct {
				OrderID string `json:"order_id"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleWebhook verifies and applies one provider callback. It is
// idempotent: duplicate deliveries of the same event id, or callbacks for a
// payment already in a terminal state, are acknowledged without applying
// anything again. Only the first successful application publishes the
// confirmation email job.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !VerifySignature(s.webhookSecret, body, signature) {
		return ErrBadSignature
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ErrBadPayload
	}
	if ev.ID == "" || ev.Data.Object.ID == "" {
		return ErrBadPayload
	}

	done, err := s.store.EventProcessed(ctx, ev.ID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	p, err := s.store.GetByProviderRef(ctx, ev.Data.Object.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownReference
		}
		return err
	}
	if p.Status != model.PaymentStatusInitiated {
		// Terminal already; a duplicate or late callback.
		return nil
	}

	switch ev.Type {
	case EventPaymentSucceeded:
		if err := s.store.MarkPaid(ctx, p.OrderID, p.ID, ev.ID, ev.Type); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil // lost the race against a duplicate delivery
			}
			return err
		}
		s.publishConfirmation(ctx, p)
		return nil
	case EventPaymentFailed:
		if err := s.store.MarkFailed(ctx, p.OrderID, p.ID, ev.ID, ev.Type); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil
			}
			return err
		}
		return nil
	default:
		log.Printf("payment: ignoring webhook event type %q", ev.Type)
		return nil
	}
}

// publishConfirmation enqueues the order confirmation email. Dispatch is
// fire-and-forget: failures are logged, never surfaced to the provider.
func (s *PaymentService) publishConfirmation(ctx context.Context, p model.Payment) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		log.Printf("payment: load user %d for confirmation mail failed: %v", p.UserID, err)
		return
	}
	job := queue.EmailJob{
		OrderID:   p.OrderID,
		Recipient: u.Email,
		Template:  queue.TemplateOrderConfirmation,
		Params: map[string]string{
			"order_id": strconv.FormatUint(p.OrderID, 10),
			"amount":   p.Amount.StringFixed(2),
		},
	}
	if err := s.publisher.PublishEmail(ctx, job); err != nil {
		log.Printf("payment: enqueue confirmation mail for order %d failed: %v", p.OrderID, err)
	}
}

// Refund asks the provider to refund a SUCCEEDED payment and marks it
// REFUNDED. The order keeps its terminal status.
func (s *PaymentService) Refund(ctx context.Context, paymentID uint64) (model.Payment, error) {
	p, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return p, err
	}
	if p.Status != model.PaymentStatusSucceeded {
		return p, repository.ErrConflict
	}
	if err := s.provider.RefundIntent(ctx, p.ProviderRef); err != nil {
		log.Printf("payment: refund %d at provider failed: %v", p.ID, err)
		return p, ErrProviderDeclined
	}
	if err := s.store.MarkRefunded(ctx, p.ID); err != nil {
		return p, err
	}
	p.Status = model.PaymentStatusRefunded
	return p, nil
}

// VerifySignature checks the hex HMAC-SHA256 signature the provider sends
// with each callback. Comparison is constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
