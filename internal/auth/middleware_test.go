package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"go.uber.org/zap"
)

func createTestMiddleware(t *testing.T, apiKey string) *auth.Middleware {
	v := newValidator(t, config.AuthConfig{JWTSecret: testSecret})
	return auth.NewMiddleware(v, apiKey, zap.NewNop())
}

func captureUser(captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	mw := createTestMiddleware(t, "test-api-key-12345")

	var user *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
	req.Header.Set("x-api-key", "test-api-key-12345")
	w := httptest.NewRecorder()

	mw.Authenticate(captureUser(&user)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, user)
	assert.Equal(t, auth.SystemPerdet, user.Perdet)
	assert.True(t, user.IsSuperUser())
}

func TestMiddleware_Authenticate_InvalidAPIKey(t *testing.T) {
	mw := createTestMiddleware(t, "test-api-key-12345")

	var user *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
	req.Header.Set("x-api-key", "wrong")
	w := httptest.NewRecorder()

	mw.Authenticate(captureUser(&user)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, user)
}

func TestMiddleware_Authenticate_Bearer(t *testing.T) {
	mw := createTestMiddleware(t, "")

	token := signHS256(t, jwt.MapClaims{
		"sub":   "P100",
		"roles": []interface{}{"bidder"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	var user *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	mw.Authenticate(captureUser(&user)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, user)
	assert.Equal(t, "P100", user.Perdet)
}

func TestMiddleware_Authenticate_MissingOrMalformedHeader(t *testing.T) {
	mw := createTestMiddleware(t, "")

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		var user *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()

		mw.Authenticate(captureUser(&user)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Nil(t, user)
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	mw := createTestMiddleware(t, "")
	handler := mw.RequireRole(domain.RoleBureau)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		user     *auth.UserContext
		expected int
	}{
		{"no user", nil, http.StatusForbidden},
		{"bidder", &auth.UserContext{Perdet: "P1", Roles: []domain.Role{domain.RoleBidder}}, http.StatusForbidden},
		{"bureau", &auth.UserContext{Perdet: "P2", Roles: []domain.Role{domain.RoleBureau}}, http.StatusNoContent},
		{"superuser", &auth.UserContext{Perdet: "P3", Roles: []domain.Role{domain.RoleSuperUser}}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
