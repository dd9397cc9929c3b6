package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewManager("unit-test-secret", time.Hour)

	token, err := m.Issue(42)

	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	identity, err := m.Verify(token)

	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if identity.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", identity.UserID)
	}
}

func TestNewManagerDefaultsTTL(t *testing.T) {
	m := NewManager("s", 0)

	if m.ttl != DefaultSessionTTL {
		t.Fatalf("ttl = %v, want %v", m.ttl, DefaultSessionTTL)
	}
}

func TestVerifyRejections(t *testing.T) {
	m := NewManager("unit-test-secret", time.Hour)

	valid, err := m.Issue(7)

	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	foreign, err := NewManager("some-other-secret", time.Hour).Issue(7)

	if err != nil {
		t.Fatalf("Issue with foreign secret: %v", err)
	}

	expired, err := NewManager("unit-test-secret", time.Nanosecond).Issue(7)

	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}

	zeroSubject, err := m.Issue(0)

	if err != nil {
		t.Fatalf("Issue zero subject: %v", err)
	}

	// real tampering: keep the valid signature, mutate the claims
	parts := strings.Split(valid, ".")

	if len(parts) != 3 {
		t.Fatalf("token has %d segments", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])

	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	mutated := strings.Replace(string(payload), `"uid":7`, `"uid":8`, 1)

	if mutated == string(payload) {
		t.Fatalf("payload fixture unchanged, claims were %s", payload)
	}

	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(mutated)) + "." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "foreign secret", token: foreign},
		{name: "expired", token: expired},
		{name: "tampered payload", token: tampered},
		{name: "alg none", token: noneToken},
		{name: "zero subject", token: zeroSubject},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := m.Verify(tc.token)

			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("err = %v, want ErrTokenInvalid", err)
			}

			if identity.UserID != 0 {
				t.Fatalf("rejected token still produced identity %+v", identity)
			}
		})
	}
}

func TestVerifyDistinguishesDenialCode(t *testing.T) {
	m := NewManager("unit-test-secret", time.Hour)

	_, err := m.Verify("bogus")

	uerr, ok := AsUnauthorized(err)

	if !ok {
		t.Fatalf("expected typed unauthorized error, got %v", err)
	}

	if uerr.Code != CodeTokenInvalid {
		t.Fatalf("code = %q, want %q", uerr.Code, CodeTokenInvalid)
	}
}
