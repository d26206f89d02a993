package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"cluster_kita/internal/domain"

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// SessionCookie is the cookie the identity provider stores its session token in
const SessionCookie = "__session"

// Claims of an identity provider session token
type Claims struct {
	Name                 string `json:"name,omitempty"`
	Email                string `json:"email,omitempty"`
	PhoneNumber          string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims        // sub carries the user id
}

// Session is the verified caller
type Session struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// Verifier checks session tokens signed either with a shared HS256 secret
// or with the provider's RS256 key.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
}

// NewVerifier builds a verifier. publicKeyPEM takes precedence over secret when set.
func NewVerifier(secret, publicKeyPEM string) (*Verifier, error) {
	v := &Verifier{secret: []byte(secret)}
	if strings.TrimSpace(publicKeyPEM) != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		v.publicKey = key
	}
	if v.publicKey == nil && len(v.secret) == 0 {
		return nil, errors.New("session secret or public key is required")
	}
	return v, nil
}

// Verify parses and validates a session token
func (v *Verifier) Verify(tokenStr string) (*Session, error) {
	if tokenStr == "" {
		return nil, domain.ErrUnauthenticated
	}
	method := jwt.SigningMethodHS256.Alg()
	if v.publicKey != nil {
		method = jwt.SigningMethodRS256.Alg()
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if v.publicKey != nil {
			return v.publicKey, nil // RS256 provider key
		}
		return v.secret, nil // Shared secret
	}, jwt.WithValidMethods([]string{method}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &Session{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Phone:  claims.PhoneNumber,
	}, nil
}

// SignSession issues an HS256 session token, used by local tooling and tests
func SignSession(secret string, s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:        s.Name,
		Email:       s.Email,
		PhoneNumber: s.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token lifetime
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}
