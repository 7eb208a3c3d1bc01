package email

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// OAuthCredentials are the externally configured Gmail OAuth2 client
// credentials, supplied via environment configuration, never logged.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// RefreshAccessToken exchanges refreshToken for a fresh access token using
// creds, following the same client-credentials + refresh-token shape as an
// OIDC token refresh. The refresh token itself and the resulting access
// token are never logged by this package.
func RefreshAccessToken(ctx context.Context, creds OAuthCredentials, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("email: no refresh token configured")
	}

	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: creds.TokenURL,
		},
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("email: refresh access token: %w", err)
	}
	return tok.AccessToken, nil
}
