package settingsstore

import (
	"github.com/mrlokans/anisync/internal/sync"
)

// TokenSource supplies previously obtained access tokens for a service.
// Implemented by the token store.
type TokenSource interface {
	GetAccessToken(service string) (string, error)
}

// Credentials adapts the settings store and an optional token source to the
// sync layer's configuration interface.
type Credentials struct {
	settings *SettingsStore
	tokens   TokenSource
}

// NewCredentials creates the credentials source for service adapters. tokens
// may be nil, in which case no access token is ever supplied.
func NewCredentials(settings *SettingsStore, tokens TokenSource) *Credentials {
	return &Credentials{settings: settings, tokens: tokens}
}

func (c *Credentials) UseSecureTransport(service string) bool {
	return c.settings.GetUseSecureTransport(service)
}

func (c *Credentials) Username(service string) string {
	return c.settings.GetUsername(service)
}

func (c *Credentials) AccessToken(service string) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.GetAccessToken(service)
	if err != nil {
		return ""
	}
	return token
}

// Compile-time interface check
var _ sync.Credentials = (*Credentials)(nil)
