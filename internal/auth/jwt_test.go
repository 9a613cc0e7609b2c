package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
)

const testSecret = "test-signing-secret"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newValidator(t *testing.T, cfg config.AuthConfig) *auth.JWTValidator {
	t.Helper()
	v, err := auth.NewJWTValidator(&cfg)
	require.NoError(t, err)
	return v
}

func TestJWTValidator_HS256(t *testing.T) {
	v := newValidator(t, config.AuthConfig{JWTSecret: testSecret})

	token := signHS256(t, jwt.MapClaims{
		"sub":   "P100",
		"name":  "Jane Bidder",
		"email": "jane@example.gov",
		"roles": []interface{}{"bidder", "unknown_role"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "P100", user.Perdet)
	assert.Equal(t, "Jane Bidder", user.DisplayName)
	assert.Equal(t, []domain.Role{domain.RoleBidder}, user.Roles)
}

func TestJWTValidator_PerdetClaimWins(t *testing.T) {
	v := newValidator(t, config.AuthConfig{JWTSecret: testSecret})

	token := signHS256(t, jwt.MapClaims{
		"sub":    "oid-123",
		"perdet": "P200",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "P200", user.Perdet)
}

func TestJWTValidator_Rejections(t *testing.T) {
	v := newValidator(t, config.AuthConfig{JWTSecret: testSecret, Issuer: "talentmap"})

	t.Run("expired", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{"sub": "P1", "iss": "talentmap", "exp": time.Now().Add(-time.Minute).Unix()})
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{"sub": "P1", "iss": "talentmap"})
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{"sub": "P1", "iss": "other", "exp": time.Now().Add(time.Hour).Unix()})
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "P1", "iss": "talentmap", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("another-secret"))
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("missing perdet", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{"iss": "talentmap", "exp": time.Now().Add(time.Hour).Unix()})
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrMissingPerdet)
	})
}

func TestJWTValidator_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v := newValidator(t, config.AuthConfig{JWTPublicKey: string(pemKey)})

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub":   "P300",
		"roles": "cdo",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "P300", user.Perdet)
	assert.True(t, user.HasRole(domain.RoleCDO))

	// HS256 is refused when no shared secret is configured
	_, err = v.ValidateToken(signHS256(t, jwt.MapClaims{"sub": "P1", "exp": time.Now().Add(time.Hour).Unix()}))
	assert.Error(t, err)
}

func TestNewJWTValidator_BadPublicKey(t *testing.T) {
	_, err := auth.NewJWTValidator(&config.AuthConfig{JWTPublicKey: "not a pem"})
	assert.Error(t, err)
}
