// Package auth resolves the credentials a transport attaches to outgoing
// requests, and caches the few credential kinds (OAuth bearer tokens) that
// are expensive to mint and benefit from a shared, TTL-bound store.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// Credential is implemented by every supported auth scheme. Apply mutates
// an outgoing HTTP request in place; it must be safe to call repeatedly
// (e.g. on retry) without side effects beyond header assignment.
type Credential interface {
	Kind() string
	Apply(ctx context.Context, req *http.Request) error
}

// Basic is HTTP Basic authentication.
type Basic struct {
	Username string
	Password string
}

func (Basic) Kind() string { return "basic" }

func (b Basic) Apply(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Bearer is a static bearer token, sent verbatim.
type Bearer struct {
	Token string
}

func (Bearer) Kind() string { return "bearer" }

func (b Bearer) Apply(_ context.Context, req *http.Request) error {
	if b.Token == "" {
		return fmt.Errorf("auth: bearer credential has an empty token")
	}
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Header attaches an arbitrary, pre-formatted header value, e.g. an API
// key carried outside the Authorization header.
type Header struct {
	Name  string
	Value string
}

func (Header) Kind() string { return "header" }

func (h Header) Apply(_ context.Context, req *http.Request) error {
	if h.Name == "" {
		return fmt.Errorf("auth: header credential has an empty name")
	}
	req.Header.Set(h.Name, h.Value)
	return nil
}

// OAuth is client-credentials OAuth2: the transport exchanges
// ClientID/ClientSecret at TokenURL for a bearer token, cached in Store
// until it is close to expiring. TokenURL must be https per the
// construction-time validation rule applied to transport.Config.
type OAuth struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Store        Store
	cacheKey     string
}

func (OAuth) Kind() string { return "oauth" }

func (o *OAuth) Apply(ctx context.Context, req *http.Request) error {
	if o.cacheKey == "" {
		o.cacheKey = o.TokenURL + "|" + o.ClientID
	}
	store := o.Store
	if store == nil {
		store = defaultTokenStore
	}
	token, err := store.Token(ctx, o.cacheKey, o.fetch)
	if err != nil {
		return fmt.Errorf("auth: oauth token fetch failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return nil
}

// fetch runs the client-credentials grant against TokenURL using
// golang.org/x/oauth2/clientcredentials; it is the Fetcher Store.Token
// invokes on a cache miss.
func (o *OAuth) fetch(ctx context.Context) (Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		TokenURL:     o.TokenURL,
		Scopes:       o.Scopes,
	}
	tok, err := cfg.Token(ctx)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: tok.AccessToken, ExpiresAt: tok.Expiry}, nil
}
