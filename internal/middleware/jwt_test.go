package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-movie-store/internal/utils"
)

func runProtected(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken("test-secret", 42, "CUSTOMER", 15)
	require.NoError(t, err)

	rec, c := runProtected(t, "Bearer "+at.Token, JWTAuth("test-secret"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 42, c.Get("user_id"))
	require.Equal(t, "CUSTOMER", c.Get("role"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := runProtected(t, "", JWTAuth("test-secret"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 42, "CUSTOMER", 15)
	require.NoError(t, err)

	rec, _ := runProtected(t, "Bearer "+at.Token, JWTAuth("test-secret"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	at, err := utils.NewAccessToken("test-secret", 42, "CUSTOMER", -1)
	require.NoError(t, err)

	rec, _ := runProtected(t, "Bearer "+at.Token, JWTAuth("test-secret"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	customer, err := utils.NewAccessToken("test-secret", 42, "CUSTOMER", 15)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken("test-secret", 1, "ADMIN", 15)
	require.NoError(t, err)

	rec, _ := runProtected(t, "Bearer "+customer.Token, JWTAuth("test-secret"), RequireRole("ADMIN"))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = runProtected(t, "Bearer "+admin.Token, JWTAuth("test-secret"), RequireRole("ADMIN"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = runProtected(t, "Bearer "+customer.Token, JWTAuth("test-secret"), RequireRole("CUSTOMER", "ADMIN"))
	require.Equal(t, http.StatusOK, rec.Code)
}
