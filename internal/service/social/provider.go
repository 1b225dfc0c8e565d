// Package social exchanges OAuth authorization codes for provider profiles.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	ProviderGitHub   = "github"
	ProviderFacebook = "facebook"
)

// requestTimeout bounds each upstream call. Attempts are never retried.
const requestTimeout = 10 * time.Second

var (
	ErrNoAccessToken = errors.New("provider returned no access token")
	ErrNoEmail       = errors.New("provider returned no email")
)

// Profile is what a provider tells us about the account holder.
type Profile struct {
	Email     string
	AvatarURL string
}

// Provider is one OAuth identity provider.
type Provider interface {
	Name() string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// exchange runs the code grant with client as the transport.
func exchange(ctx context.Context, client *http.Client, cfg *oauth2.Config, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("missing authorization code: %w", ErrNoAccessToken)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return token.AccessToken, nil
}

// getJSON decodes the JSON body of a GET into out. bearer is sent as an
// Authorization header when set.
func getJSON(ctx context.Context, client *http.Client, url, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
