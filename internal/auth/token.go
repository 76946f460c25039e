package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is how long an issued token stays valid. There is no refresh:
// an expired token means a fresh login.
const TokenTTL = 24 * time.Hour

// PlaceholderSecret signs tokens when no secret is configured. Only
// acceptable outside production.
const PlaceholderSecret = "your-secret-key-here"

// Claims is the token payload: the username and the absolute expiry. The
// registered ID makes every issued token distinct, so revoking one never
// affects another login of the same user.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens with one shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	if secret == "" {
		secret = PlaceholderSecret
	}
	return &TokenService{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

// WithClock replaces the time source used for issuing and checking expiry.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for username expiring TokenTTL from now.
func (s *TokenService) Issue(username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify returns the username carried by a valid token. Any failure yields
// ErrTokenExpired or ErrTokenInvalid; both mean the caller is logged out.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

// ExpiresAt returns the expiry of a valid token.
func (s *TokenService) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
