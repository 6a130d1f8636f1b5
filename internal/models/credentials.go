package models

import "sync"

// CredentialState holds the user's access and refresh tokens.
//
// A single instance is shared by every session in the process and updated in place.
type CredentialState struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	displayName  string
	expired      bool
}

// NewCredentialState creates a state with the given tokens.
func NewCredentialState(accessToken, refreshToken string) *CredentialState {
	return &CredentialState{accessToken: accessToken, refreshToken: refreshToken}
}

func (c *CredentialState) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *CredentialState) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

func (c *CredentialState) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

// Expired reports whether the access token was rejected and not yet replaced.
func (c *CredentialState) Expired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expired
}

// Authenticated reports whether an access token is present.
func (c *CredentialState) Authenticated() bool {
	return c.AccessToken() != ""
}

// MarkExpired flags the current access token as rejected.
func (c *CredentialState) MarkExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expired = true
}

// Replace installs a refreshed access token. A non-empty refreshToken rotates the stored one.
func (c *CredentialState) Replace(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	if refreshToken != "" {
		c.refreshToken = refreshToken
	}
	c.expired = false
}

// Set overwrites all fields, as after a fresh login or a load from storage.
func (c *CredentialState) Set(accessToken, refreshToken, displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
	c.displayName = displayName
	c.expired = false
}

// Clear forgets all credentials. Called on logout and on session expiry.
func (c *CredentialState) Clear() {
	c.Set("", "", "")
}
