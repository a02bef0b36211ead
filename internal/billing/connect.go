package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/edvin/saaslens/internal/model"
)

const (
	stripeAuthorizeURL = "https://connect.stripe.com/oauth/authorize"
	stripeTokenURL     = "https://connect.stripe.com/oauth/token"
	connectScope       = "read_write"
)

type ConnectConfig struct {
	ClientID  string
	SecretKey string
	// AuthURL and TokenURL default to the Stripe Connect endpoints.
	AuthURL  string
	TokenURL string
}

// Connect runs the Stripe Connect OAuth flow for platform accounts.
type Connect struct {
	oauth *oauth2.Config
}

func NewConnect(cfg ConnectConfig) *Connect {
	if cfg.AuthURL == "" {
		cfg.AuthURL = stripeAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = stripeTokenURL
	}
	return &Connect{oauth: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.SecretKey,
		Scopes:       []string{connectScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}
}

// ClientID returns the Connect client id, empty when unset.
func (c *Connect) ClientID() string {
	return c.oauth.ClientID
}

// NewState returns a random OAuth state value.
func NewState() string {
	return uuid.NewString()
}

// AuthorizeURL builds the consent URL the user is redirected to.
func (c *Connect) AuthorizeURL(state, redirectURI string) (string, error) {
	if c.oauth.ClientID == "" {
		return "", fmt.Errorf("stripe connect client id: %w", ErrNotConfigured)
	}
	if state == "" {
		state = NewState()
	}
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURI)), nil
}

// Exchange trades an authorization code for the connected account's tokens.
func (c *Connect) Exchange(ctx context.Context, code string) (*model.Connection, error) {
	if c.oauth.ClientSecret == "" {
		return nil, fmt.Errorf("stripe secret key: %w", ErrNotConfigured)
	}
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange stripe authorization code: %w", err)
	}
	accountID, _ := tok.Extra("stripe_user_id").(string)
	if accountID == "" {
		return nil, fmt.Errorf("exchange stripe authorization code: response has no stripe_user_id")
	}
	return &model.Connection{
		StripeAccountID: accountID,
		AccessToken:     tok.AccessToken,
		RefreshToken:    tok.RefreshToken,
	}, nil
}
