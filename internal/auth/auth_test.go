package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "auth-test-secret"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
}

func TestTokenCarriesIdentity(t *testing.T) {
	token, err := CreateToken(testSecret, Identity{UserID: "u-1", FullName: "Maria Garcia", Instagram: "maria.g", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", FullName: "Maria Garcia", Instagram: "maria.g", Role: RoleAdmin}, claims.Identity())
	assert.Equal(t, "u-1", claims.Subject)

	_, err = ParseToken("other-secret", token)
	require.Error(t, err)
}

func TestUnknownRoleDowngradesToUser(t *testing.T) {
	token, err := CreateToken(testSecret, Identity{UserID: "u-1", Role: "superuser"}, 0)
	require.NoError(t, err)
	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := Claims{
		UserID: "u-1",
		Role:   RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	require.Error(t, err)
}

func TestMiddlewareAndRequireAdmin(t *testing.T) {
	handler := Middleware(testSecret)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(identity.FullName))
	})))

	userToken, err := CreateToken(testSecret, Identity{UserID: "u-1", FullName: "Maria Garcia"}, time.Hour)
	require.NoError(t, err)
	adminToken, err := CreateToken(testSecret, Identity{UserID: "u-2", FullName: "Ada Lovelace", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "bad scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "plain user", header: "Bearer " + userToken, status: http.StatusForbidden},
		{name: "admin", header: "bearer " + adminToken, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "Ada Lovelace", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
