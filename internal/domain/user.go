package domain

import "time"

// User is the domain model for end-users who submit tickets.
type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Department   string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Admin is an operator who overrides assignment and closes tickets.
type Admin struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}
