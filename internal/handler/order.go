package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-movie-store/internal/repository"
	"github.com/iliyamo/online-movie-store/internal/service"
)

// OrderHandler serves checkout and order history.
type OrderHandler struct {
	Svc    *service.OrderService
	Orders *repository.OrderRepo
}

func NewOrderHandler(svc *service.OrderService, orders *repository.OrderRepo) *OrderHandler {
	return &OrderHandler{Svc: svc, Orders: orders}
}

// Place checks the user's cart out into a PENDING order.
func (h *OrderHandler) Place(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	o, err := h.Svc.Place(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart),
			errors.Is(err, service.ErrMovieUnavailable),
			errors.Is(err, service.ErrAlreadyPurchased):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrPendingOrder):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":           o.ID,
		"status":       o.Status,
		"total_amount": o.TotalAmount.StringFixed(2),
		"created_at":   o.CreatedAt,
	})
}

// ListMine returns the caller's orders with items, newest first.
func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// Get returns one of the caller's orders with its items.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Orders.GetDetailForUser(ctx, orderID, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// Cancel moves the caller's PENDING order to CANCELLED. Terminal
// orders cannot be cancelled.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Orders.CancelForUser(ctx, orderID, userID); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"detail": "order cancelled"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
}

// ListAll returns orders across all users, filtered by the query.
// Admin only.
func (h *OrderHandler) ListAll(c echo.Context) error {
	f, err := orderFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func orderFilterFromQuery(c echo.Context) (repository.OrderFilter, error) {
	var f repository.OrderFilter
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
