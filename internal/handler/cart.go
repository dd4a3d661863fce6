package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

// CartHandler serves the authenticated user's shopping cart.
type CartHandler struct {
	Carts  *repository.CartRepo
	Movies *repository.MovieRepo
	Orders *repository.OrderRepo
}

func NewCartHandler(carts *repository.CartRepo, movies *repository.MovieRepo, orders *repository.OrderRepo) *CartHandler {
	return &CartHandler{Carts: carts, Movies: movies, Orders: orders}
}

type addItemReq struct {
	MovieID  uint64 `json:"movie_id"`
	Quantity int    `json:"quantity"`
}
type updateItemReq struct {
	Quantity int `json:"quantity"`
}

// Get returns the cart lines and the total the cart would check out
// at, computed from current catalog prices.
func (h *CartHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lines, err := h.Carts.LinesForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	total := decimal.Zero
	for _, l := range lines {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		total = total.Add(l.CurrentPrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": lines,
		"total": total.StringFixed(2),
	})
}

// AddItem puts a movie in the cart. Unavailable and already-owned
// movies are rejected up front; a movie already in the cart is a
// conflict, quantity changes go through UpdateItem.
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addItemReq
	if err := c.Bind(&req); err != nil || req.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id required"})
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !m.IsAvailable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie is not available"})
	}

	owned, err := h.Orders.MovieIDsWithStatus(ctx, userID, model.OrderStatusPaid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, id := range owned {
		if id == m.ID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie already purchased"})
		}
	}

	cart, err := h.Carts.GetOrCreateForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	itemID, err := h.Carts.AddItem(ctx, cart.ID, m.ID, req.Quantity, m.Price)
	if err != nil {
		if err == repository.ErrMovieInCart {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id": itemID, "movie_id": m.ID, "quantity": req.Quantity,
		"price_at_add": m.Price.StringFixed(2),
	})
}

// UpdateItem changes the quantity of one cart line.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateItemReq
	if err := c.Bind(&req); err != nil || req.Quantity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be >= 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cart, err := h.Carts.GetOrCreateForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	if err := h.Carts.UpdateItemQuantity(ctx, cart.ID, itemID, req.Quantity); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cart item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": itemID, "quantity": req.Quantity})
}

// RemoveItem deletes one cart line.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cart, err := h.Carts.GetOrCreateForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	if err := h.Carts.RemoveItem(ctx, cart.ID, itemID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cart item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear empties the cart.
func (h *CartHandler) Clear(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cart, err := h.Carts.GetOrCreateForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	if err := h.Carts.Clear(ctx, cart.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
