package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// engagementCall runs an EngagementHandler method against a request
// with an authenticated user already resolved into the context. The
// handler is built without repositories; every case here must be
// rejected before any database access.
func engagementCall(t *testing.T, method, path, body string, fn func(*EngagementHandler, echo.Context) error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))

	h := NewEngagementHandler(nil, nil)
	require.NoError(t, fn(h, c))
	return rec
}

func TestReactRejectsInvalidValue(t *testing.T) {
	for _, body := range []string{`{"value":0}`, `{"value":2}`, `{"value":-5}`, `{}`} {
		rec := engagementCall(t, http.MethodPost, "/v1/movies/1/reaction", body,
			func(h *EngagementHandler, c echo.Context) error {
				c.SetParamNames("id")
				c.SetParamValues("1")
				return h.React(c)
			})
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestRateRejectsOutOfRangeScore(t *testing.T) {
	for _, body := range []string{`{"score":0}`, `{"score":11}`, `{"score":-3}`, `{}`} {
		rec := engagementCall(t, http.MethodPost, "/v1/movies/1/rating", body,
			func(h *EngagementHandler, c echo.Context) error {
				c.SetParamNames("id")
				c.SetParamValues("1")
				return h.Rate(c)
			})
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestAddCommentRequiresBody(t *testing.T) {
	for _, body := range []string{`{}`, `{"body":""}`, `{"body":"   "}`} {
		rec := engagementCall(t, http.MethodPost, "/v1/movies/1/comments", body,
			func(h *EngagementHandler, c echo.Context) error {
				c.SetParamNames("id")
				c.SetParamValues("1")
				return h.AddComment(c)
			})
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestFavoriteRejectsInvalidMovieID(t *testing.T) {
	for _, id := range []string{"0", "abc", "-1"} {
		rec := engagementCall(t, http.MethodDelete, "/v1/movies/"+id+"/favorite", "",
			func(h *EngagementHandler, c echo.Context) error {
				c.SetParamNames("id")
				c.SetParamValues(id)
				return h.RemoveFavorite(c)
			})
		require.Equal(t, http.StatusBadRequest, rec.Code, "id %s", id)
	}
}

func TestEngagementRequiresUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/favorites", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id in context

	h := NewEngagementHandler(nil, nil)
	require.NoError(t, h.ListFavorites(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
