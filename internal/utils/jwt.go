package utils

import (
	"errors" // Sentinel errors
	"fmt"    // Error wrapping
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// ErrUnsupportedAlgorithm is returned for signing methods outside the HMAC family
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// TokenIssuer signs and validates bearer tokens whose subject is the user's email
type TokenIssuer struct {
	secret []byte            // HMAC key
	method jwt.SigningMethod // HS256, HS384 or HS512
	ttl    time.Duration     // Token lifetime
	now    func() time.Time  // Clock, replaceable in tests
}

// NewTokenIssuer resolves the algorithm name and returns an issuer
func NewTokenIssuer(secret, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	return &TokenIssuer{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

// GenerateJWT creates a signed token for the given email
func (t *TokenIssuer) GenerateJWT(email string) (string, error) {
	now := t.now()
	// Standard claims only; the subject carries the identity
	claims := jwt.RegisteredClaims{
		Subject:   email,                              // User email
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)), // Token expires after the configured lifetime
		IssuedAt:  jwt.NewNumericDate(now),            // Issued at current time
	}
	token := jwt.NewWithClaims(t.method, claims) // Create token with claims
	return token.SignedString(t.secret)          // Sign the token with the secret
}

// ParseJWT parses and validates a token string and returns its subject
func (t *TokenIssuer) ParseJWT(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil // Return the secret key for validation
	},
		jwt.WithValidMethods([]string{t.method.Alg()}), // Reject tokens signed with another algorithm
		jwt.WithExpirationRequired(),                   // Tokens without exp are not accepted
		jwt.WithTimeFunc(t.now),                        // Validate against the issuer's clock
	)
	// Check for parsing errors
	if err != nil {
		return "", err // Return error if parsing fails
	}
	// Validate token and extract the subject
	if !token.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}
