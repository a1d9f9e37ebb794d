package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrEmptySecret = errors.New("jwt secret can't be empty")

// Verification is the outcome of checking a token. When Valid is false every
// other field is zero.
type Verification struct {
	Valid     bool
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Tokens signs and verifies HS256 tokens carrying a subject id
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Tokens{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// WithClock replaces the wall clock used for issuing and checking expiry
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	t.now = now
	return t
}

// Sign mints a token for subject that expires ttl from now. Every token gets
// a random jti so two tokens minted in the same second never collide.
func (t *Tokens) Sign(subject string, ttl time.Duration) (string, error) {
	jti, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id, %w", err)
	}

	now := t.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return signed, nil
}

// Verify never fails loudly. Garbage, tampered, expired or foreign-algorithm
// tokens all come back as an invalid Verification.
func (t *Tokens) Verify(tokenStr string) Verification {
	if tokenStr == "" {
		return Verification{}
	}

	var claims jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tk *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Verification{}
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Verification{}
	}

	v := Verification{
		Valid:     true,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if claims.IssuedAt != nil {
		v.IssuedAt = claims.IssuedAt.Time
	}

	return v
}
