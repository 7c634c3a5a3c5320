package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssueAndVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec, err := NewTokenCodec(testSecret, WithIssuer("test-issuer"), WithTTL(time.Hour), WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	user := &User{ID: "user-42", Email: "a@x.com", Role: RoleAdmin}

	token, expiresAt, err := codec.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	p, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.UserID != "user-42" || p.Email != "a@x.com" || p.Role != RoleAdmin {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestTokenCarriesULIDJTI(t *testing.T) {
	codec, err := NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, err := codec.Issue(&User{ID: "u1", Email: "u@x.com", Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if len(claims.ID) != 26 {
		t.Fatalf("expected ULID jti, got %q", claims.ID)
	}
	if claims.Issuer != defaultIssuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestTokenVerifyRejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec, err := NewTokenCodec(testSecret, WithTTL(time.Hour), WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	user := &User{ID: "u1", Email: "u@x.com", Role: RoleUser}
	valid, _, err := codec.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later, _ := NewTokenCodec(testSecret, WithTTL(time.Hour), WithClock(fixedClock(now.Add(2*time.Hour))))
	earlier, _ := NewTokenCodec(testSecret, WithTTL(time.Hour), WithClock(fixedClock(now.Add(-time.Minute))))
	otherSecret, _ := NewTokenCodec("another-secret-0123456789", WithClock(fixedClock(now)))
	otherIssuer, _ := NewTokenCodec(testSecret, WithIssuer("someone-else"), WithClock(fixedClock(now)))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: Role("ROOT"),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign bad role: %v", err)
	}

	cases := []struct {
		name  string
		codec *TokenCodec
		token string
	}{
		{"empty", codec, ""},
		{"garbage", codec, "not.a.token"},
		{"expired", later, valid},
		{"issued in future", earlier, valid},
		{"wrong secret", otherSecret, valid},
		{"wrong issuer", otherIssuer, valid},
		{"tampered", codec, tamperSignature(valid)},
		{"alg none", codec, noneToken},
		{"unknown role", codec, badRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.codec.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	if _, err := NewTokenCodec("   "); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenCodec(strings.Repeat("k", minSecretLength-1)); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func tamperSignature(token string) string {
	i := strings.LastIndex(token, ".") + 5
	c := byte('A')
	if token[i] == 'A' {
		c = 'B'
	}
	return token[:i] + string(c) + token[i+1:]
}
