// Package domain holds the core entities persisted by the storage layer.
package domain

// User is an account record. Users are immutable after registration;
// the password is stored only as a bcrypt hash.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	IsActive     bool   `json:"is_active"`
}
