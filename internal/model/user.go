// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// A user is created the first time someone signs in with a name nobody has
// used yet, and is never updated or deleted afterwards.
//
// WHY Name IS STORED LOWERCASED:
// The name is the login handle and must be unique regardless of case
// ("Ada" and "ada" are the same person). The sign-in flow lowercases it
// before it reaches the store, and the column is declared COLLATE NOCASE
// so the UNIQUE constraint agrees with that rule.
//
// WHY PasswordHash AND NOT Password?
// Only a bcrypt digest is ever persisted. The json:"-" tag keeps it out of
// any serialized output by accident.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
