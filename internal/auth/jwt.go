package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the fixed validity window of a session token.
const DefaultSessionTTL = 30 * 24 * time.Hour

type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Identity is the proof that a token passed signature and expiry checks.
// Downstream authorization only accepts this type, never a raw token
// string, so "extract before verify" cannot be written.
type Identity struct {
	UserID int64
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a token manager around an immutable signing secret.
// The secret is injected here once; there is no rotation during the
// process lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *Manager) Issue(subjectID int64) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   strconv.FormatInt(subjectID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the asserted identity.
// Malformed tokens, foreign secrets, tampered payloads and expired
// tokens all collapse into ErrTokenInvalid so the failure mode never
// leaks to the caller.
func (m *Manager) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return Identity{}, ErrTokenInvalid
	}

	if claims.UserID == 0 {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{UserID: claims.UserID}, nil
}
