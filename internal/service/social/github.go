package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overridable for tests
	TokenURL string
	APIURL   string
}

type GitHub struct {
	oauth  *oauth2.Config
	apiURL string
	client *http.Client
}

func NewGitHub(c GitHubConfig) *GitHub {
	endpoint := github.Endpoint
	if c.TokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: c.TokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}
	apiURL := c.APIURL
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}

	return &GitHub{
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"user:email"},
			Endpoint:     endpoint,
		},
		apiURL: strings.TrimSuffix(apiURL, "/"),
		client: newHTTPClient(),
	}
}

func (g *GitHub) Name() string {
	return ProviderGitHub
}

func (g *GitHub) ExchangeCode(ctx context.Context, code string) (string, error) {
	return exchange(ctx, g.client, g.oauth, code)
}

// FetchProfile reads /user. Private addresses are missing there, so the
// primary address from /user/emails is used instead.
func (g *GitHub) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	var user struct {
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	err := getJSON(ctx, g.client, g.apiURL+"/user", accessToken, &user)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get github user: %w", err)
	}

	if user.Email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		err = getJSON(ctx, g.client, g.apiURL+"/user/emails", accessToken, &emails)
		if err != nil {
			return Profile{}, fmt.Errorf("failed to get github emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary {
				user.Email = e.Email
				break
			}
		}
	}

	if user.Email == "" {
		return Profile{}, ErrNoEmail
	}

	return Profile{Email: user.Email, AvatarURL: user.AvatarURL}, nil
}
