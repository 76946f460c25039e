// Package auth implements registration, credential checks and session
// tokens on top of a CredentialStore.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/db"
	"github.com/chepyr/task-scheduler/internal/models"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput       = apperr.New(apperr.Validation, "Username and password are required.")
	ErrInvalidUsername    = apperr.New(apperr.Validation, "Username cannot contain path separators.")
	ErrUserExists         = apperr.New(apperr.Auth, "Username already exists")
	ErrInvalidCredentials = apperr.New(apperr.Auth, "Invalid username or password")
	ErrTokenExpired       = apperr.New(apperr.Auth, "Session expired. Please login again.")
	ErrTokenInvalid       = apperr.New(apperr.Auth, "Invalid session. Please login again.")
)

type Service struct {
	users  db.CredentialStore
	hasher Hasher
	tokens *TokenService
	log    *zap.Logger

	// serializes the load-modify-save of Register
	mu sync.Mutex
}

func NewService(users db.CredentialStore, hasher Hasher, tokens *TokenService, log *zap.Logger) *Service {
	if hasher == nil {
		hasher = LegacyHasher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, log: log}
}

// HashPassword hashes with the configured scheme.
func (s *Service) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}

// Register stores a new credential. It fails with ErrInvalidInput for an
// empty field, ErrInvalidUsername for a name that cannot key a file and
// ErrUserExists for a taken one. A credential file that cannot be read is
// never overwritten.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidInput
	}
	if !models.ValidUsername(username) {
		return ErrInvalidUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load(ctx)
	if err != nil {
		s.log.Error("refusing to register over unreadable credentials",
			zap.String("username", username), zap.Error(err))
		return err
	}
	if _, exists := users[username]; exists {
		return ErrUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "Cannot hash password", err)
	}
	users[username] = hash
	if err := s.users.Save(ctx, users); err != nil {
		s.log.Error("failed to save credentials", zap.String("username", username), zap.Error(err))
		return err
	}

	s.log.Info("user registered", zap.String("username", username))
	return nil
}

// VerifyCredentials reports whether username exists and password matches
// its stored hash. Unreadable credentials count as no match.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) bool {
	users, err := s.users.Load(ctx)
	if err != nil {
		s.log.Warn("credentials unavailable during login", zap.Error(err))
	}
	hash, exists := users[username]
	if !exists {
		return false
	}
	return verifyStored(hash, password)
}

// IssueToken returns a signed token for username and its expiry.
func (s *Service) IssueToken(username string) (string, time.Time, error) {
	token, expiresAt, err := s.tokens.Issue(username)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.Auth, "Cannot create token", err)
	}
	return token, expiresAt, nil
}

// VerifyToken returns the username in a valid, unexpired token.
func (s *Service) VerifyToken(token string) (string, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return "", err
	}
	return username, nil
}

// TokenExpiry returns the expiry embedded in a valid token.
func (s *Service) TokenExpiry(token string) (time.Time, error) {
	return s.tokens.ExpiresAt(token)
}
