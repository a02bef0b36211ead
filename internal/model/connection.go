package model

import "time"

// Connection holds the OAuth credentials for one connected billing account.
// Tokens are never serialized to API responses.
type Connection struct {
	ID              string    `json:"id" db:"id"`
	StripeAccountID string    `json:"stripe_account_id" db:"stripe_account_id"`
	AccessToken     string    `json:"-" db:"access_token"`
	RefreshToken    string    `json:"-" db:"refresh_token"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
