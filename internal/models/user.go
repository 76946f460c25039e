package models

import "strings"

// User is a registered account. Records are created on registration and
// never mutated or deleted.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// ValidUsername reports whether name can key a credential entry and name a
// per-user tasks file.
func ValidUsername(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
