package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-movie-store/internal/client"
	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/queue"
	"github.com/iliyamo/online-movie-store/internal/repository"
	"github.com/iliyamo/online-movie-store/internal/service"
)

const webhookTestSecret = "whsec_handler"

// stubStore satisfies service.PaymentStore; the webhook rejects bad
// requests before touching the store, except for the lookup paths
// exercised here.
type stubStore struct{}

func (stubStore) Create(ctx context.Context, p *model.Payment) error { return nil }
func (stubStore) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	return model.Payment{}, repository.ErrNotFound
}
func (stubStore) GetByProviderRef(ctx context.Context, ref string) (model.Payment, error) {
	return model.Payment{}, repository.ErrNotFound
}
func (stubStore) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	return false, nil
}
func (stubStore) MarkPaid(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error {
	return nil
}
func (stubStore) MarkFailed(ctx context.Context, orderID, paymentID uint64, eventID, eventType string) error {
	return nil
}
func (stubStore) MarkRefunded(ctx context.Context, paymentID uint64) error { return nil }

type stubOrders struct{}

func (stubOrders) GetByID(ctx context.Context, orderID uint64) (model.Order, error) {
	return model.Order{}, repository.ErrNotFound
}

type stubUsers struct{}

func (stubUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return model.User{}, repository.ErrNotFound
}

type stubProvider struct{}

func (stubProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, orderID uint64) (*client.PaymentIntent, error) {
	return &client.PaymentIntent{ID: "pi_1", ClientSecret: "cs"}, nil
}
func (stubProvider) RefundIntent(ctx context.Context, providerRef string) error { return nil }

type stubPublisher struct{}

func (stubPublisher) PublishEmail(ctx context.Context, job queue.EmailJob) error { return nil }

func newWebhookHandler() *PaymentHandler {
	svc := service.NewPaymentService(stubStore{}, stubOrders{}, stubUsers{},
		stubProvider{}, stubPublisher{}, webhookTestSecret, "usd")
	return NewPaymentHandler(svc, nil)
}

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h *PaymentHandler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.Webhook(e.NewContext(req, rec)))
	return rec
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h := newWebhookHandler()
	rec := postWebhook(t, h, `{"id":"evt_1"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "signature")
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	h := newWebhookHandler()
	sig := signBody(`{"id":"evt_1"}`)
	rec := postWebhook(t, h, `{"id":"evt_2"}`, sig)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h := newWebhookHandler()
	body := `not json`
	rec := postWebhook(t, h, body, signBody(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsUnknownReference(t *testing.T) {
	h := newWebhookHandler()
	body := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_missing"}}}`
	rec := postWebhook(t, h, body, signBody(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
