package models

import "time"

// Account is a login identity
type Account struct {
	ID           string    `dynamodbav:"id" json:"id"`                   // Partition key
	Email        string    `dynamodbav:"email" json:"email"`             // Indexed via EmailIndex GSI
	PasswordHash string    `dynamodbav:"password_hash" json:"-"`         // bcrypt
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Session is the resolved identity plus the tokens that prove it
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Credentials are what a client presents to prove who it is
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether no token was presented at all
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}
