package governance

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingBearerToken is returned when a request carries no (or a
// malformed) Authorization header.
var ErrMissingBearerToken = errors.New("governance: missing bearer token")

// Claims is the minimal claim set a governance-proposal submission token
// carries: who submitted it and when it expires. Verify relies entirely on
// jwt.RegisteredClaims' expiry handling.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens on the governance proposal endpoint against
// a single shared HMAC secret. Besides verifying, it can mint HS256 tokens
// with the same secret through Issue.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier keyed on secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a bearer token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("governance: invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("governance: token failed validation")
	}
	return claims, nil
}

// Issue mints a short-lived token for subject, for tests and local tooling
// that need to exercise the authenticated path without a separate issuer.
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ExtractBearerToken pulls the token out of an HTTP request's Authorization
// header, requiring the "Bearer " scheme.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingBearerToken
	}
	token := strings.TrimPrefix(header, prefix)
	if token == "" {
		return "", ErrMissingBearerToken
	}
	return token, nil
}
