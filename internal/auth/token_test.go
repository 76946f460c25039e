package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestTokenService_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewTokenService(strings.Repeat("s", 32)).WithClock(clock.Now)

	token, expiresAt, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(clock.now.Add(TokenTTL)) {
		t.Errorf("Expected expiry %v, got %v", clock.now.Add(TokenTTL), expiresAt)
	}

	clock.now = clock.now.Add(TokenTTL - time.Second)
	username, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify just before expiry: %v", err)
	}
	if username != "alice" {
		t.Errorf("Expected alice, got %q", username)
	}

	clock.now = clock.now.Add(2 * time.Second)
	username, err = svc.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Expected ErrTokenExpired, got %v", err)
	}
	if username != "" {
		t.Errorf("Expected no username for expired token, got %q", username)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	secret := strings.Repeat("k", 32)
	svc := NewTokenService(secret)
	valid, _, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, _, err := svc.Issue("mallory")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// mallory's claims under alice's signature
	validParts, otherParts := strings.Split(valid, "."), strings.Split(other, ".")
	spliced := validParts[0] + "." + otherParts[1] + "." + validParts[2]

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered", spliced},
		{"other secret", sign(jwt.SigningMethodHS256, []byte("other-secret-other-secret-other!"),
			Claims{Username: "alice", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})},
		{"other algorithm", sign(jwt.SigningMethodHS512, []byte(secret),
			Claims{Username: "alice", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(secret), Claims{Username: "alice"})},
		{"no username", sign(jwt.SigningMethodHS256, []byte(secret),
			Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := svc.Verify(tt.token)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Expected ErrTokenInvalid, got %v", err)
			}
			if username != "" {
				t.Errorf("Expected empty username, got %q", username)
			}
		})
	}
}

func TestTokenService_ClaimsLayout(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	secret := strings.Repeat("s", 32)
	token, _, err := NewTokenService(secret).WithClock(clock.Now).Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if claims["username"] != "alice" {
		t.Errorf("Expected username claim alice, got %v", claims["username"])
	}
	exp, ok := claims["exp"].(float64)
	if !ok || int64(exp) != clock.now.Add(TokenTTL).Unix() {
		t.Errorf("Expected exp %d, got %v", clock.now.Add(TokenTTL).Unix(), claims["exp"])
	}
}

func TestNewTokenService_PlaceholderSecret(t *testing.T) {
	svc := NewTokenService("")
	token, _, err := svc.Issue("bob")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenService(PlaceholderSecret).Verify(token); err != nil {
		t.Errorf("Expected token signed with the placeholder to verify: %v", err)
	}
}

func TestTokenService_IssueIsUnique(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewTokenService(strings.Repeat("s", 32)).WithClock(clock.Now)

	first, _, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, _, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first == second {
		t.Fatalf("Expected two logins in the same second to get different tokens")
	}
}
