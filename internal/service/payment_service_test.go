package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-movie-store/internal/client"
	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/queue"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

const testSecret = "whsec_test"

// fakeStore keeps payments in memory and applies the same status-guarded
// transition semantics as the real repository.
type fakeStore struct {
	nextID    uint64
	payments  map[uint64]*model.Payment
	orders    map[uint64]*model.Order
	processed map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		payments:  map[uint64]*model.Payment{},
		orders:    map[uint64]*model.Order{},
		processed: map[string]bool{},
	}
}

func (f *fakeStore) addOrder(o model.Order) *model.Order {
	f.orders[o.ID] = &o
	return f.orders[o.ID]
}

func (f *fakeStore) Create(ctx context.Context, p *model.Payment) error {
	for _, ex := range f.payments {
		if ex.OrderID == p.OrderID &&
			(ex.Status == model.PaymentStatusInitiated || ex.Status == model.PaymentStatusSucceeded) {
			return repository.ErrActivePayment
		}
	}
	p.ID = f.nextID
	f.nextID++
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	if p, ok := f.payments[id]; ok {
		return *p, nil
	}
	return model.Payment{}, repository.ErrNotFound
}

func (f *fakeStore) GetByProviderRef(ctx context.Context, ref string) (model.Payment, error) {
	for _, p := range f.payments {
		if p.ProviderRef == ref {
			return *p, nil
		}
	}
	return model.Payment{}, repository.ErrNotFound
}

func (f *fakeStore) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeStore) transition(orderID, paymentID uint64, eventID, orderStatus, paymentStatus string) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != model.OrderStatusPending {
		return repository.ErrConflict
	}
	p, ok := f.payments[paymentID]
	if !ok || p.Status != model.PaymentStatusInitiated {
		return repository.ErrConflict
	}
	if f.processed[eventID] {
		return repository.ErrConflict
	}
	o.Status = orderStatus
	p.Status = paymentStatus
	f.processed[eventID] = true
	return nil
}

func (f *fakeStore) MarkPaid(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error {
	return f.transition(orderID, paymentID, eventID, model.OrderStatusPaid, model.PaymentStatusSucceeded)
}

func (f *fakeStore) MarkFailed(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error {
	return f.transition(orderID, paymentID, eventID, model.OrderStatusFailed, model.PaymentStatusFailed)
}

func (f *fakeStore) MarkRefunded(ctx context.Context, paymentID uint64) error {
	p, ok := f.payments[paymentID]
	if !ok || p.Status != model.PaymentStatusSucceeded {
		return repository.ErrConflict
	}
	p.Status = model.PaymentStatusRefunded
	return nil
}

type fakeOrderReader struct{ store *fakeStore }

func (f fakeOrderReader) GetByID(ctx context.Context, orderID uint64) (model.Order, error) {
	if o, ok := f.store.orders[orderID]; ok {
		return *o, nil
	}
	return model.Order{}, repository.ErrNotFound
}

type fakeUsers struct{}

func (fakeUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return model.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id)}, nil
}

type fakeProvider struct {
	intents   int
	refunds   int
	failNext  bool
	lastIDSeq int
}

func (f *fakeProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, orderID uint64) (*client.PaymentIntent, error) {
	if f.failNext {
		return nil, errors.New("provider unreachable")
	}
	f.intents++
	f.lastIDSeq++
	return &client.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", f.lastIDSeq),
		ClientSecret: "cs_test",
		Status:       "requires_payment_method",
	}, nil
}

func (f *fakeProvider) RefundIntent(ctx context.Context, providerRef string) error {
	f.refunds++
	return nil
}

type recordingPublisher struct{ jobs []queue.EmailJob }

func (r *recordingPublisher) PublishEmail(ctx context.Context, job queue.EmailJob) error {
	r.jobs = append(r.jobs, job)
	return nil
}

func newTestService(store *fakeStore, provider *fakeProvider, pub *recordingPublisher) *PaymentService {
	return NewPaymentService(store, fakeOrderReader{store}, fakeUsers{}, provider, pub, testSecret, "usd")
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func eventBody(t *testing.T, eventID, eventType, ref string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":   eventID,
		"type": eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":       ref,
				"metadata": map[string]string{"order_id": "1"},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func pendingOrder(store *fakeStore, id, userID uint64, total string) *model.Order {
	amt, _ := decimal.NewFromString(total)
	return store.addOrder(model.Order{
		ID: id, UserID: userID,
		Status: model.OrderStatusPending, TotalAmount: amt,
	})
}

func TestInitiate(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "24.98")
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	intent, p, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, "cs_test", intent.ClientSecret)
	require.Equal(t, model.PaymentStatusInitiated, p.Status)
	require.Equal(t, intent.ID, p.ProviderRef)
	require.True(t, p.Amount.Equal(decimal.RequireFromString("24.98")))
}

func TestInitiateNotOwner(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "9.99")
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	_, _, err := svc.Initiate(context.Background(), 1, 8)
	require.ErrorIs(t, err, repository.ErrForbidden)
}

func TestInitiateNonPendingOrder(t *testing.T) {
	store := newFakeStore()
	o := pendingOrder(store, 1, 7, "9.99")
	o.Status = model.OrderStatusPaid
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	_, _, err := svc.Initiate(context.Background(), 1, 7)
	require.ErrorIs(t, err, ErrOrderNotPending)
}

func TestInitiateProviderDeclined(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "9.99")
	svc := newTestService(store, &fakeProvider{failNext: true}, &recordingPublisher{})

	_, _, err := svc.Initiate(context.Background(), 1, 7)
	require.ErrorIs(t, err, ErrProviderDeclined)

	// The declined attempt is kept as a FAILED payment.
	require.Len(t, store.payments, 1)
	for _, p := range store.payments {
		require.Equal(t, model.PaymentStatusFailed, p.Status)
	}
}

func TestInitiateSecondAttemptBlocked(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "9.99")
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	_, _, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)
	_, _, err = svc.Initiate(context.Background(), 1, 7)
	require.ErrorIs(t, err, repository.ErrActivePayment)
}

func TestWebhookSuccessIsIdempotent(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "24.98")
	pub := &recordingPublisher{}
	svc := newTestService(store, &fakeProvider{}, pub)

	intent, p, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, intent.ID)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	got, err := store.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusSucceeded, got.Status)
	require.Equal(t, model.OrderStatusPaid, store.orders[1].Status)
	require.Len(t, pub.jobs, 1)
	require.Equal(t, queue.TemplateOrderConfirmation, pub.jobs[0].Template)
	require.Equal(t, "user7@example.com", pub.jobs[0].Recipient)

	// Duplicate delivery: acknowledged, nothing changes, no second mail.
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))
	require.Equal(t, model.OrderStatusPaid, store.orders[1].Status)
	require.Len(t, pub.jobs, 1)
}

func TestWebhookFailure(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "24.98")
	pub := &recordingPublisher{}
	svc := newTestService(store, &fakeProvider{}, pub)

	intent, _, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)

	body := eventBody(t, "evt_1", EventPaymentFailed, intent.ID)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))
	require.Equal(t, model.OrderStatusFailed, store.orders[1].Status)
	require.Empty(t, pub.jobs)
}

func TestWebhookBadSignature(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "pi_1")
	err := svc.HandleWebhook(context.Background(), body, "deadbeef")
	require.ErrorIs(t, err, ErrBadSignature)

	err = svc.HandleWebhook(context.Background(), body, "")
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestWebhookBadPayload(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{}, &recordingPublisher{})

	body := []byte(`{"id":"","type":"payment_intent.succeeded"}`)
	err := svc.HandleWebhook(context.Background(), body, sign(body))
	require.ErrorIs(t, err, ErrBadPayload)

	body = []byte(`not json`)
	err = svc.HandleWebhook(context.Background(), body, sign(body))
	require.ErrorIs(t, err, ErrBadPayload)
}

func TestWebhookUnknownReference(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{}, &recordingPublisher{})

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "pi_missing")
	err := svc.HandleWebhook(context.Background(), body, sign(body))
	require.ErrorIs(t, err, ErrUnknownReference)
}

func TestWebhookUnknownTypeAcknowledged(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "9.99")
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	intent, _, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)

	body := eventBody(t, "evt_1", "payment_intent.created", intent.ID)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))
	require.Equal(t, model.OrderStatusPending, store.orders[1].Status)
}

func TestRefund(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "9.99")
	provider := &fakeProvider{}
	svc := newTestService(store, provider, &recordingPublisher{})

	intent, p, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)
	body := eventBody(t, "evt_1", EventPaymentSucceeded, intent.ID)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	refunded, err := svc.Refund(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusRefunded, refunded.Status)
	require.Equal(t, 1, provider.refunds)

	// Only SUCCEEDED payments can be refunded; a second refund conflicts.
	_, err = svc.Refund(context.Background(), p.ID)
	require.ErrorIs(t, err, repository.ErrConflict)
	require.Equal(t, 1, provider.refunds)
}

func TestRefundInitiatedPayment(t *testing.T) {
	store := newFakeStore()
	pendingOrder(store, 1, 7, "9.99")
	svc := newTestService(store, &fakeProvider{}, &recordingPublisher{})

	_, p, err := svc.Initiate(context.Background(), 1, 7)
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), p.ID)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	require.True(t, VerifySignature(testSecret, body, sign(body)))
	require.False(t, VerifySignature(testSecret, body, "bad"))
	require.False(t, VerifySignature(testSecret, []byte(`tampered`), sign(body)))
	require.False(t, VerifySignature("other-secret", body, sign(body)))
}
