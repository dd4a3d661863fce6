package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

// EngagementHandler serves the catalog engagement endpoints:
// favorites, like/dislike reactions, ratings and comments.
type EngagementHandler struct {
	Engage *repository.EngagementRepo
	Movies *repository.MovieRepo
}

func NewEngagementHandler(e *repository.EngagementRepo, m *repository.MovieRepo) *EngagementHandler {
	return &EngagementHandler{Engage: e, Movies: m}
}

// movieExists resolves the :id path param and checks the movie is in
// the catalog. It writes the error response itself and reports ok.
func (h *EngagementHandler) movieExists(ctx context.Context, c echo.Context) (uint64, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		return 0, false
	}
	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
		return 0, false
	}
	return id, true
}

// AddFavorite saves a movie for the authenticated user.
func (h *EngagementHandler) AddFavorite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieID, ok := h.movieExists(ctx, c)
	if !ok {
		return nil
	}
	if err := h.Engage.AddFavorite(ctx, userID, movieID); err != nil {
		if err == repository.ErrAlreadyFavorite {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already in favorites"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"movie_id": movieID, "favorite": true})
}

// RemoveFavorite drops a movie from the user's favorites.
func (h *EngagementHandler) RemoveFavorite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engage.RemoveFavorite(ctx, userID, movieID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not in favorites"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListFavorites returns the user's saved movies.
func (h *EngagementHandler) ListFavorites(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	favs, err := h.Engage.ListFavorites(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"favorites": favs})
}

type reactionReq struct {
	Value int `json:"value"`
}

// React records a like (value 1) or dislike (value -1) on a movie,
// overwriting any previous reaction of the user.
func (h *EngagementHandler) React(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reactionReq
	if err := c.Bind(&req); err != nil || !model.ValidReaction(req.Value) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be 1 or -1"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieID, ok := h.movieExists(ctx, c)
	if !ok {
		return nil
	}
	if err := h.Engage.React(ctx, userID, movieID, req.Value); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": movieID, "value": req.Value})
}

// RemoveReaction withdraws the user's like or dislike.
func (h *EngagementHandler) RemoveReaction(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engage.RemoveReaction(ctx, userID, movieID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no reaction"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type ratingReq struct {
	Score int `json:"score"`
}

// Rate records the user's 1..10 score for a movie. Re-rating
// overwrites the previous score.
func (h *EngagementHandler) Rate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req ratingReq
	if err := c.Bind(&req); err != nil || !model.ValidRatingScore(req.Score) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "score must be between 1 and 10"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieID, ok := h.movieExists(ctx, c)
	if !ok {
		return nil
	}
	if err := h.Engage.Rate(ctx, userID, movieID, req.Score); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": movieID, "score": req.Score})
}

// Summary returns the aggregate engagement counters of a movie.
// Public, no auth.
func (h *EngagementHandler) Summary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieID, ok := h.movieExists(ctx, c)
	if !ok {
		return nil
	}
	s, err := h.Engage.Summary(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": movieID, "summary": s})
}

type commentReq struct {
	Body     string  `json:"body"`
	ParentID *uint64 `json:"parent_id"`
}

// AddComment posts a comment, or a reply when parent_id is set. The
// parent must be a comment on the same movie.
func (h *EngagementHandler) AddComment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieID, ok := h.movieExists(ctx, c)
	if !ok {
		return nil
	}
	cmt, err := h.Engage.AddComment(ctx, movieID, userID, req.ParentID, strings.TrimSpace(req.Body))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusCreated, cmt)
}

// ListComments returns a movie's comments oldest first, replies
// included. Public, no auth.
func (h *EngagementHandler) ListComments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movieID, ok := h.movieExists(ctx, c)
	if !ok {
		return nil
	}
	comments, err := h.Engage.ListComments(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": movieID, "comments": comments})
}

// DeleteComment removes a comment the user authored. Admins may
// remove any comment. Replies go with the parent.
func (h *EngagementHandler) DeleteComment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	role, _ := c.Get("role").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Engage.DeleteComment(ctx, commentID, userID, role == "ADMIN")
	switch err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your comment"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
