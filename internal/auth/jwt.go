package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrMissingPerdet = errors.New("token missing perdet claim")
)

// JWTValidator validates bearer tokens issued by the identity provider.
// HS256 tokens are checked against the shared secret and RS256 tokens against
// the configured public key.
type JWTValidator struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	audience  string
}

// NewJWTValidator creates a validator from auth configuration
func NewJWTValidator(cfg *config.AuthConfig) (*JWTValidator, error) {
	v := &JWTValidator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
	if cfg.JWTPublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
		}
		v.publicKey = key
	}
	return v, nil
}

// ValidateToken validates a JWT token and returns user context
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	var opts []jwt.ParserOption
	opts = append(opts, jwt.WithValidMethods([]string{"HS256", "RS256"}), jwt.WithExpirationRequired())
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userCtx := &UserContext{
		Perdet:      extractString(claims, "perdet", "sub"),
		DisplayName: extractString(claims, "name", "preferred_username"),
		Email:       extractString(claims, "email", "upn"),
		Roles:       ExtractRoles(claims),
	}
	if userCtx.Perdet == "" {
		return nil, ErrMissingPerdet
	}
	return userCtx, nil
}

func (v *JWTValidator) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(v.secret) == 0 {
			return nil, fmt.Errorf("HS256 tokens are not accepted")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.publicKey == nil {
			return nil, fmt.Errorf("RS256 tokens are not accepted")
		}
		return v.publicKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

func extractString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if val, ok := claims[key]; ok {
			if str, ok := val.(string); ok && str != "" {
				return str
			}
		}
	}
	return ""
}

// ExtractRoles reads the "roles" or "role" claim; unknown role names are dropped
func ExtractRoles(claims jwt.MapClaims) []domain.Role {
	roles := []domain.Role{}
	add := func(name string) {
		role := domain.Role(strings.TrimSpace(name))
		if role.IsValid() {
			roles = append(roles, role)
		}
	}

	for _, key := range []string{"roles", "role"} {
		val, ok := claims[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case []interface{}:
			for _, r := range v {
				if str, ok := r.(string); ok {
					add(str)
				}
			}
		case []string:
			for _, str := range v {
				add(str)
			}
		case string:
			add(v)
		}
	}
	return roles
}
