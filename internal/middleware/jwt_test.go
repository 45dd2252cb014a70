package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/training-platform/internal/model"
	"github.com/iliyamo/training-platform/internal/utils"
)

const testSecret = "middleware-test-secret"

// runProtected sends a request with the given Authorization header
// through the middleware chain and reports what reached the handler.
func runProtected(t *testing.T, authHeader string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	var handler echo.HandlerFunc = func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	require.NoError(t, handler(c))
	return rec, c, reached
}

func bearerFor(t *testing.T, uid uint64, role string, ttlMin int) string {
	t.Helper()
	at, err := utils.NewAccessToken(testSecret, uid, role, ttlMin)
	require.NoError(t, err)
	return "Bearer " + at.Token
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	t.Parallel()

	rec, _, reached := runProtected(t, "", JWTAuth(testSecret))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, reached)
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	rec, _, reached := runProtected(t, "Bearer not.a.jwt", JWTAuth(testSecret))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, reached)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	rec, _, reached := runProtected(t, bearerFor(t, 5, "TRAINEE", -1), JWTAuth(testSecret))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, reached)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	t.Parallel()

	at, err := utils.NewAccessToken("other-secret", 5, "TRAINEE", 30)
	require.NoError(t, err)
	rec, _, reached := runProtected(t, "Bearer "+at.Token, JWTAuth(testSecret))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, reached)
}

func TestJWTAuth_ValidTokenInjectsIdentity(t *testing.T) {
	t.Parallel()

	rec, c, reached := runProtected(t, bearerFor(t, 42, "ADMIN", 30), JWTAuth(testSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reached)
	require.Equal(t, uint64(42), c.Get("user_id"))
	require.Equal(t, "ADMIN", c.Get("role"))
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	// Role outside the allowed set is rejected with 403.
	rec, _, reached := runProtected(t, bearerFor(t, 1, "TRAINEE", 30),
		JWTAuth(testSecret), RequireRole(model.RoleAdmin, model.RoleCompany))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, reached)

	rec, _, reached = runProtected(t, bearerFor(t, 1, "COMPANY", 30),
		JWTAuth(testSecret), RequireRole(model.RoleAdmin, model.RoleCompany))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reached)
}

func TestRequireRole_UnknownRoleClaim(t *testing.T) {
	t.Parallel()

	// A syntactically valid token carrying a role outside the closed
	// enumeration never passes a role gate.
	rec, _, reached := runProtected(t, bearerFor(t, 1, "SUPERUSER", 30),
		JWTAuth(testSecret), RequireRole(model.Roles...))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, reached)
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	rec, _, reached := runProtected(t, bearerFor(t, 1, "TRAINEE", 30),
		JWTAuth(testSecret), RequirePermission(model.PermManageUsers))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, reached)

	rec, _, reached = runProtected(t, bearerFor(t, 1, "ADMIN", 30),
		JWTAuth(testSecret), RequirePermission(model.PermManageUsers))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reached)
}
