package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

// ErrInvalidToken indicates a token that failed verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carries the identity embedded in an access token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the access tokens the authorization
// layer consumes. The decoded principal is trusted verbatim downstream.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed token carrying {id, email, role}.
func (i *TokenIssuer) Issue(user User, now time.Time) (string, error) {
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed token into a principal.
func (i *TokenIssuer) Verify(raw string) (abac.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return abac.Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return abac.Principal{}, ErrInvalidToken
	}
	return abac.Principal{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  abac.ParseRole(claims.Role),
	}, nil
}
