package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func setActiveCall(t *testing.T, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/v1/admin/users/"+id+"/active", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)

	h := NewUserHandler(nil, nil) // rejected before any repository call
	require.NoError(t, h.SetActive(c))
	return rec
}

func TestSetActiveRejectsInvalidID(t *testing.T) {
	for _, id := range []string{"0", "abc", "-1"} {
		rec := setActiveCall(t, id, `{"active":false}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, "id %s", id)
	}
}

func TestSetActiveRequiresActiveField(t *testing.T) {
	rec := setActiveCall(t, "3", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = setActiveCall(t, "3", `{"enabled":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
