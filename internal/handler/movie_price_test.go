package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func updatePriceCall(t *testing.T, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/v1/movies/"+id+"/price", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)

	h := NewMovieHandler(nil) // rejected before any repository call
	require.NoError(t, h.UpdatePrice(c))
	return rec
}

func TestUpdatePriceRejectsInvalidID(t *testing.T) {
	rec := updatePriceCall(t, "abc", `{"price":"9.99"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePriceRejectsBadPrice(t *testing.T) {
	for _, body := range []string{`{"price":"free"}`, `{"price":"-1.00"}`, `{}`} {
		rec := updatePriceCall(t, "5", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}
