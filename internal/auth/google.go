package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

type GoogleIdentity struct {
	Email string
	Name  string
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (GoogleIdentity, error)
}

type googleVerifier struct {
	audience string
}

// NewGoogleVerifier checks Google-signed ID tokens. An empty clientID skips
// the audience check.
func NewGoogleVerifier(clientID string) IDTokenVerifier {
	return googleVerifier{audience: clientID}
}

func (g googleVerifier) Verify(ctx context.Context, raw string) (GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, raw, g.audience)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("verify google token: %w", err)
	}
	return identityFromClaims(payload.Claims)
}

func identityFromClaims(claims map[string]any) (GoogleIdentity, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return GoogleIdentity{}, errors.New("google token has no email")
	}
	if v, ok := claims["email_verified"].(bool); ok && !v {
		return GoogleIdentity{}, errors.New("google email is not verified")
	}
	name, _ := claims["name"].(string)
	return GoogleIdentity{Email: email, Name: name}, nil
}

// GoogleOAuth runs the browser authorization-code flow.
type GoogleOAuth struct {
	cfg      *oauth2.Config
	verifier IDTokenVerifier
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string, verifier IDTokenVerifier) *GoogleOAuth {
	return &GoogleOAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		verifier: verifier,
	}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for tokens and verifies the returned id_token.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (GoogleIdentity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("exchange code: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return GoogleIdentity{}, errors.New("token response has no id_token")
	}
	return g.verifier.Verify(ctx, raw)
}
