package social

import (
	"fmt"

	"github.com/nzoschke/apartments/internal/config"
)

// Providers is the closed set of configured providers keyed by name.
type Providers map[string]Provider

// NewProviders builds every supported provider. Callback URLs live under
// APP_URL/register/{provider}.
func NewProviders(cfg *config.Config) Providers {
	return Providers{
		ProviderGitHub: NewGitHub(GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.AppURL + "/register/" + ProviderGitHub,
		}),
		ProviderFacebook: NewFacebook(FacebookConfig{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.AppURL + "/register/" + ProviderFacebook,
			Version:      cfg.FacebookGraphVersion,
		}),
	}
}

func (p Providers) Lookup(name string) (Provider, error) {
	provider, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return provider, nil
}
