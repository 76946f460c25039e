package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacySalt is the fixed, public salt of the legacy credential format.
// Kept so existing users.json files keep verifying; new deployments should
// pick the bcrypt scheme, which salts per user.
const legacySalt = "random_salt"

const (
	SchemeLegacy = "legacy"
	SchemeBcrypt = "bcrypt"
)

// Hasher turns a password into a storable hash and checks a password
// against one.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// LegacyHasher is hex(SHA-256(password + legacySalt)). Deterministic.
type LegacyHasher struct{}

func (LegacyHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password + legacySalt))
	return hex.EncodeToString(sum[:]), nil
}

func (h LegacyHasher) Verify(hash, password string) bool {
	want, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(want)) == 1
}

// BcryptHasher salts every hash with fresh randomness.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewHasher returns the hasher for a configured scheme name.
func NewHasher(scheme string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeLegacy:
		return LegacyHasher{}, nil
	case SchemeBcrypt:
		return BcryptHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// verifyStored checks password against a stored hash of either scheme, so
// switching the configured scheme does not lock out existing users.
func verifyStored(hash, password string) bool {
	if isBcryptHash(hash) {
		return BcryptHasher{}.Verify(hash, password)
	}
	return LegacyHasher{}.Verify(hash, password)
}
