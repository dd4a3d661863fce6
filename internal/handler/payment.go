package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/repository"
	"github.com/iliyamo/online-movie-store/internal/service"
)

// SignatureHeader carries the provider's hex HMAC-SHA256 of the raw
// webhook body.
const SignatureHeader = "X-Payment-Signature"

// PaymentHandler serves payment initiation, the provider webhook and
// payment history.
type PaymentHandler struct {
	Svc      *service.PaymentService
	Payments *repository.PaymentRepo
}

func NewPaymentHandler(svc *service.PaymentService, payments *repository.PaymentRepo) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Payments: payments}
}

type paymentResp struct {
	ID          uint64    `json:"id"`
	OrderID     uint64    `json:"order_id"`
	UserID      uint64    `json:"user_id"`
	Amount      string    `json:"amount"`
	ProviderRef string    `json:"provider_ref"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPaymentResp(p model.Payment) paymentResp {
	return paymentResp{
		ID: p.ID, OrderID: p.OrderID, UserID: p.UserID,
		Amount: p.Amount.StringFixed(2), ProviderRef: p.ProviderRef,
		Status: p.Status, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

// Initiate creates a payment intent for the caller's PENDING order.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	intent, p, err := h.Svc.Initiate(ctx, orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
		case errors.Is(err, service.ErrOrderNotPending):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is not pending"})
		case errors.Is(err, repository.ErrActivePayment):
			return c.JSON(http.StatusConflict, echo.Map{"error": "order already has an active payment"})
		case errors.Is(err, service.ErrProviderDeclined):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider declined"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "initiate failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"client_secret": intent.ClientSecret,
		"payment":       toPaymentResp(p),
	})
}

// Webhook receives provider callbacks. The body is read raw so the
// signature covers the exact bytes sent. Idempotent duplicates are
// acknowledged with 200.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}
	signature := c.Request().Header.Get(SignatureHeader)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.HandleWebhook(ctx, body, signature); err != nil {
		switch {
		case errors.Is(err, service.ErrBadSignature),
			errors.Is(err, service.ErrBadPayload),
			errors.Is(err, service.ErrUnknownReference):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// ListMine returns the caller's payment attempts, newest first.
func (h *PaymentHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payments, err := h.Payments.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]paymentResp, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

// ListAll returns payments across all users, filtered by the query.
// Admin only.
func (h *PaymentHandler) ListAll(c echo.Context) error {
	f, err := paymentFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	payments, err := h.Payments.ListAll(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]paymentResp, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

// ListEvents returns the most recent processed webhook events for
// audit. Admin only.
func (h *PaymentHandler) ListEvents(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Payments.ListEvents(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Refund refunds a SUCCEEDED payment at the provider. Admin only.
func (h *PaymentHandler) Refund(c echo.Context) error {
	paymentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	p, err := h.Svc.Refund(ctx, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not refundable"})
		case errors.Is(err, service.ErrProviderDeclined):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider refused the refund"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund failed"})
	}
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

func paymentFilterFromQuery(c echo.Context) (repository.PaymentFilter, error) {
	var f repository.PaymentFilter
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid user_id")
		}
		f.UserID = &id
	}
	f.Status = c.QueryParam("status")
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid from timestamp")
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid to timestamp")
		}
		f.To = &t
	}
	return f, nil
}
