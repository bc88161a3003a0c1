package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking-api/internal/config"
)

func testContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tours", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestCurrentUserIDFromTokenClaims(t *testing.T) {
	c := testContext(t)
	// The JWT middleware stores the sub claim as decoded, which for a
	// JSON number is float64.
	c.Set("user_id", float64(42))
	require.Equal(t, "42", currentUserID(c))
}

func TestCurrentUserIDNumericTypes(t *testing.T) {
	c := testContext(t)
	c.Set("user_id", uint64(7))
	require.Equal(t, "7", currentUserID(c))

	c.Set("user_id", int64(8))
	require.Equal(t, "8", currentUserID(c))

	c.Set("user_id", "9")
	require.Equal(t, "9", currentUserID(c))
}

func TestCurrentUserIDUnauthenticated(t *testing.T) {
	c := testContext(t)
	require.Equal(t, "anon", currentUserID(c))
}

func TestBuildRateKeySeparatesUsers(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}

	authed := testContext(t)
	authed.Set("user_id", float64(42))
	require.Equal(t, "rl:user:42", buildRateKey(cfg, authed))

	guest := testContext(t)
	require.Equal(t, "rl:user:anon", buildRateKey(cfg, guest))
}
