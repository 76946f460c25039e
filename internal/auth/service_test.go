package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/db"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockCredentialStore struct {
	users   map[string]string
	loadErr error
	saveErr error
	saves   int
	mutex   sync.Mutex
}

func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{users: make(map[string]string)}
}

func (m *MockCredentialStore) Load(ctx context.Context) (map[string]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make(map[string]string, len(m.users))
	if m.loadErr != nil {
		return out, m.loadErr
	}
	for k, v := range m.users {
		out[k] = v
	}
	return out, nil
}

func (m *MockCredentialStore) Save(ctx context.Context, users map[string]string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.users = make(map[string]string, len(users))
	for k, v := range users {
		m.users[k] = v
	}
	return nil
}

func newTestService(store db.CredentialStore) *Service {
	return NewService(store, LegacyHasher{}, NewTokenService(strings.Repeat("t", 32)), zap.NewNop())
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		store    *MockCredentialStore
		wantErr  error
	}{
		{"Success", "alice", "strongpass", NewMockCredentialStore(), nil},
		{"Empty username", "", "strongpass", NewMockCredentialStore(), ErrInvalidInput},
		{"Empty password", "alice", "", NewMockCredentialStore(), ErrInvalidInput},
		{"Path username", "../alice", "strongpass", NewMockCredentialStore(), ErrInvalidUsername},
		{
			name: "Already exists", username: "alice", password: "other",
			store:   &MockCredentialStore{users: map[string]string{"alice": "hash"}},
			wantErr: ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestService(tt.store).Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegister_TwiceKeepsOneEntry(t *testing.T) {
	store := db.NewFileCredentialStore(t.TempDir())
	svc := newTestService(store)

	if err := svc.Register(context.Background(), "alice", "first"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := svc.Register(context.Background(), "alice", "second")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("Expected ErrUserExists, got %v", err)
	}

	users, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("Expected exactly one credential, got %d", len(users))
	}
	if !svc.VerifyCredentials(context.Background(), "alice", "first") {
		t.Error("Expected the first password to still verify")
	}
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	store := NewMockCredentialStore()
	svc := newTestService(store)

	if err := svc.Register(context.Background(), "alice", "strongpass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	stored := store.users["alice"]
	if stored == "" || stored == "strongpass" {
		t.Fatalf("Expected a hash, got %q", stored)
	}
	want, _ := svc.HashPassword("strongpass")
	if stored != want {
		t.Errorf("Expected stored hash %q, got %q", want, stored)
	}
}

func TestRegister_RefusesUnreadableStore(t *testing.T) {
	store := &MockCredentialStore{
		users:   map[string]string{},
		loadErr: apperr.Wrap(apperr.Storage, "Error loading users data. File might be corrupted.", errors.New("bad json")),
	}
	svc := newTestService(store)

	err := svc.Register(context.Background(), "alice", "strongpass")
	if apperr.KindOf(err) != apperr.Storage {
		t.Fatalf("Expected storage error, got %v", err)
	}
	if store.saves != 0 {
		t.Errorf("Expected no save over unreadable credentials, got %d", store.saves)
	}
}

func TestRegister_SaveError(t *testing.T) {
	store := NewMockCredentialStore()
	store.saveErr = apperr.Wrap(apperr.Storage, "Error saving users data", errors.New("read-only fs"))

	err := newTestService(store).Register(context.Background(), "alice", "strongpass")
	if apperr.KindOf(err) != apperr.Storage {
		t.Fatalf("Expected storage error, got %v", err)
	}
}

func TestVerifyCredentials(t *testing.T) {
	store := NewMockCredentialStore()
	svc := newTestService(store)
	if err := svc.Register(context.Background(), "alice", "strongpass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	bcryptHash, _ := BcryptHasher{Cost: 4}.Hash("bcryptpass")
	store.users["bob"] = bcryptHash

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"valid", "alice", "strongpass", true},
		{"wrong password", "alice", "wrong", false},
		{"unknown user", "carol", "strongpass", false},
		{"bcrypt user under legacy scheme", "bob", "bcryptpass", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.VerifyCredentials(context.Background(), tt.username, tt.password); got != tt.want {
				t.Errorf("VerifyCredentials = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyCredentials_UnreadableStoreLogsAndFails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &MockCredentialStore{loadErr: errors.New("corrupted")}
	svc := NewService(store, LegacyHasher{}, NewTokenService(""), zap.New(core))

	if svc.VerifyCredentials(context.Background(), "alice", "pw") {
		t.Fatal("Expected false for unreadable credentials")
	}
	if logs.FilterMessage("credentials unavailable during login").Len() != 1 {
		t.Errorf("Expected one warning, got %v", logs.All())
	}
}

func TestVerifyAfterRegister_Property(t *testing.T) {
	svc := newTestService(db.NewFileCredentialStore(filepath.Join(t.TempDir(), "data")))

	for i := range 20 {
		username := fmt.Sprintf("user-%d", i)
		password := strings.Repeat("p", i+1)
		if err := svc.Register(context.Background(), username, password); err != nil {
			t.Fatalf("Register(%s): %v", username, err)
		}
		if !svc.VerifyCredentials(context.Background(), username, password) {
			t.Fatalf("VerifyCredentials(%s) = false right after Register", username)
		}
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	tokens := NewTokenService(strings.Repeat("t", 32)).WithClock(clock.Now)
	svc := NewService(NewMockCredentialStore(), nil, tokens, nil)

	token, expiresAt, err := svc.IssueToken("alice")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if got, err := svc.VerifyToken(token); err != nil || got != "alice" {
		t.Fatalf("VerifyToken = %q, %v", got, err)
	}
	exp, err := svc.TokenExpiry(token)
	if err != nil || !exp.Equal(expiresAt) {
		t.Errorf("TokenExpiry = %v, %v; want %v", exp, err, expiresAt)
	}

	clock.now = clock.now.Add(TokenTTL + time.Second)
	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestRegisterConcurrent(t *testing.T) {
	store := NewMockCredentialStore()
	svc := newTestService(store)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := svc.Register(context.Background(), fmt.Sprintf("user%d", idx), "strongpass"); err != nil {
				t.Errorf("Concurrent registration failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(store.users) != 50 {
		t.Errorf("Expected 50 users, got %d", len(store.users))
	}
}
