package paypal

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// tokenResponse represents the response from the OAuth2 token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// accessToken is a bearer token scoped to a single gateway operation.
type accessToken string

func (t accessToken) header() string {
	return "Bearer " + string(t)
}

// basicAuth returns the Authorization header value for the app credentials.
func (c *Client) basicAuth() string {
	creds := c.clientID + ":" + c.clientSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// AccessToken runs the client-credentials grant and returns a fresh bearer
// token. Tokens are not cached: every operation that needs one asks again.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	tok, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

func (c *Client) fetchToken(ctx context.Context) (accessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: build token request: %w", err)
	}
	req.Header.Set("Authorization", c.basicAuth())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tokenResp tokenResponse
	if err := c.do(req, &tokenResp); err != nil {
		return "", fmt.Errorf("paypal: fetch access token: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", ErrMissingAccessToken
	}
	return accessToken(tokenResp.AccessToken), nil
}
