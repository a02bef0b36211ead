package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeURL(t *testing.T) {
	c := NewConnect(ConnectConfig{ClientID: "ca_123", SecretKey: "sk_test"})

	raw, err := c.AuthorizeURL("state-1", "https://app.example.com/api/v1/stripe/oauth/callback")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "connect.stripe.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "ca_123", q.Get("client_id"))
	assert.Equal(t, "read_write", q.Get("scope"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "https://app.example.com/api/v1/stripe/oauth/callback", q.Get("redirect_uri"))
}

func TestAuthorizeURL_GeneratesState(t *testing.T) {
	c := NewConnect(ConnectConfig{ClientID: "ca_123"})

	raw, err := c.AuthorizeURL("", "http://localhost/cb")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, u.Query().Get("state"))
}

func TestAuthorizeURL_NotConfigured(t *testing.T) {
	_, err := NewConnect(ConnectConfig{}).AuthorizeURL("s", "http://localhost/cb")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ac_code", r.PostForm.Get("code"))
		assert.Equal(t, "sk_platform", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"sk_acct","refresh_token":"rt_acct","token_type":"bearer",
			"scope":"read_write","livemode":false,"stripe_user_id":"acct_42"}`))
	}))
	defer srv.Close()

	c := NewConnect(ConnectConfig{ClientID: "ca_123", SecretKey: "sk_platform", TokenURL: srv.URL})
	conn, err := c.Exchange(context.Background(), "ac_code")
	require.NoError(t, err)
	assert.Equal(t, "acct_42", conn.StripeAccountID)
	assert.Equal(t, "sk_acct", conn.AccessToken)
	assert.Equal(t, "rt_acct", conn.RefreshToken)
}

func TestExchange_MissingAccountID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"sk_acct","token_type":"bearer"}`))
	}))
	defer srv.Close()

	c := NewConnect(ConnectConfig{ClientID: "ca_123", SecretKey: "sk_platform", TokenURL: srv.URL})
	_, err := c.Exchange(context.Background(), "ac_code")
	assert.ErrorContains(t, err, "stripe_user_id")
}

func TestExchange_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Authorization code expired"}`))
	}))
	defer srv.Close()

	c := NewConnect(ConnectConfig{ClientID: "ca_123", SecretKey: "sk_platform", TokenURL: srv.URL})
	_, err := c.Exchange(context.Background(), "ac_code")
	assert.ErrorContains(t, err, "exchange stripe authorization code")
}

func TestExchange_NotConfigured(t *testing.T) {
	_, err := NewConnect(ConnectConfig{ClientID: "ca_123"}).Exchange(context.Background(), "ac_code")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
