// Package token implements the signed credential codec. Credentials are
// HS256 JWTs carrying the subject id, the token_version snapshot taken at
// login, the issue time and the expiry. They are never persisted: the
// version comparison performed at authorization time is the revocation
// mechanism.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned by Verify for any unusable credential: bad
// signature, wrong algorithm, malformed structure or expired token.
var ErrInvalid = errors.New("invalid token")

// Claims is the payload embedded in every minted credential.
type Claims struct {
	TokenVersion int `json:"token_version"`
	jwt.RegisteredClaims
}

// Codec mints and verifies credentials with a process-wide symmetric key
// and TTL, both resolved once at startup.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// New returns a Codec signing with secret and stamping expiries now+ttl.
func New(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured credential lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint signs a credential for subject embedding tokenVersion. The returned
// time is the credential's expiry.
func (c *Codec) Mint(subject string, tokenVersion int, now time.Time) (string, time.Time, error) {
	exp := now.Add(c.ttl)
	claims := Claims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates raw. Expiry is checked strictly with zero
// clock-skew leeway. Any failure is reported as ErrInvalid; the underlying
// cause is wrapped for logs only.
func (c *Codec) Verify(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Subject == "" || claims.TokenVersion == 0 {
		return nil, fmt.Errorf("%w: missing subject or token_version", ErrInvalid)
	}
	return &claims, nil
}
