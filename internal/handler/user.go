package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-movie-store/internal/repository"
)

// UserHandler exposes admin account management. Users referenced by
// orders are never deleted; accounts are deactivated instead.
type UserHandler struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewUserHandler(u *repository.UserRepo, t *repository.TokenRepo) *UserHandler {
	return &UserHandler{Users: u, Tokens: t}
}

type setActiveReq struct {
	Active *bool `json:"active"`
}

// SetActive enables or disables an account. Deactivation also revokes
// every refresh token of the user, killing live sessions.
func (h *UserHandler) SetActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetActive(ctx, id, *req.Active); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !*req.Active {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": *req.Active})
}
