package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

type FacebookConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Version      string

	// Overridable for tests
	GraphURL string
}

type Facebook struct {
	oauth    *oauth2.Config
	graphURL string
	version  string
	appToken string
	client   *http.Client
}

func NewFacebook(c FacebookConfig) *Facebook {
	graphURL := c.GraphURL
	if graphURL == "" {
		graphURL = "https://graph.facebook.com"
	}
	graphURL = strings.TrimSuffix(graphURL, "/")

	return &Facebook{
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.facebook.com/" + c.Version + "/dialog/oauth",
				TokenURL:  graphURL + "/" + c.Version + "/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		graphURL: graphURL,
		version:  c.Version,
		appToken: c.ClientID + "|" + c.ClientSecret,
		client:   newHTTPClient(),
	}
}

func (f *Facebook) Name() string {
	return ProviderFacebook
}

func (f *Facebook) ExchangeCode(ctx context.Context, code string) (string, error) {
	return exchange(ctx, f.client, f.oauth, code)
}

// FetchProfile resolves the provider user id from the access token, then
// reads the email and the picture concurrently. Both must succeed.
func (f *Facebook) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	userID, err := f.debugToken(ctx, accessToken)
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var body struct {
			Email string `json:"email"`
		}
		q := url.Values{"fields": {"email"}, "access_token": {accessToken}}
		err := getJSON(gctx, f.client, f.node(userID)+"?"+q.Encode(), "", &body)
		if err != nil {
			return fmt.Errorf("failed to get facebook email: %w", err)
		}
		profile.Email = body.Email
		return nil
	})

	g.Go(func() error {
		var body struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		}
		q := url.Values{"redirect": {"false"}, "height": {"500"}, "access_token": {accessToken}}
		err := getJSON(gctx, f.client, f.node(userID)+"/picture?"+q.Encode(), "", &body)
		if err != nil {
			return fmt.Errorf("failed to get facebook picture: %w", err)
		}
		profile.AvatarURL = body.Data.URL
		return nil
	})

	err = g.Wait()
	if err != nil {
		return Profile{}, err
	}

	if profile.Email == "" {
		return Profile{}, ErrNoEmail
	}
	return profile, nil
}

func (f *Facebook) debugToken(ctx context.Context, accessToken string) (string, error) {
	var body struct {
		Data struct {
			UserID  string `json:"user_id"`
			IsValid bool   `json:"is_valid"`
		} `json:"data"`
	}
	q := url.Values{"input_token": {accessToken}, "access_token": {f.appToken}}
	err := getJSON(ctx, f.client, f.graphURL+"/debug_token?"+q.Encode(), "", &body)
	if err != nil {
		return "", fmt.Errorf("failed to debug facebook token: %w", err)
	}
	if !body.Data.IsValid || body.Data.UserID == "" {
		return "", fmt.Errorf("facebook token is not valid: %w", ErrNoAccessToken)
	}
	return body.Data.UserID, nil
}

func (f *Facebook) node(id string) string {
	return f.graphURL + "/" + f.version + "/" + url.PathEscape(id)
}
