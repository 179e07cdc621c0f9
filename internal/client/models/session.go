// Package models holds the payloads authctl exchanges with the auth API.
package models

import "time"

// User is the public profile returned by the server.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the data of a successful login: the user next to a fresh
// token pair.
type LoginResult struct {
	User User `json:"user"`
	TokenPair
}

// FieldError is one validation failure reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
