package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/desertthunder/tidalwatch/internal/shared"
	"golang.org/x/oauth2"
)

const (
	tidalDeviceAuthURL = "https://auth.tidal.com/v1/oauth2/device_authorization"
	tidalTokenURL      = "https://auth.tidal.com/v1/oauth2/token"
)

// TokenStore persists an [oauth2.Token] as JSON so logins survive restarts.
type TokenStore struct {
	path string
}

// NewTokenStore creates a token store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the stored token. Returns [shared.ErrNotAuthenticated] when no
// token has been saved yet.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// Save writes the token to disk, creating parent directories as needed.
func (s *TokenStore) Save(token *oauth2.Token) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Authenticator performs the TIDAL OAuth2 device authorization flow and
// hands out authenticated HTTP clients with persistent token refresh.
type Authenticator struct {
	config *oauth2.Config
	store  *TokenStore
}

// NewAuthenticator creates an authenticator for the given OAuth client ID,
// persisting tokens at tokenPath.
func NewAuthenticator(clientID, tokenPath string) *Authenticator {
	config := &oauth2.Config{
		ClientID: clientID,
		Scopes:   []string{"r_usr", "w_usr"},
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: tidalDeviceAuthURL,
			TokenURL:      tidalTokenURL,
		},
	}

	return &Authenticator{
		config: config,
		store:  NewTokenStore(tokenPath),
	}
}

// PromptFunc shows the device login link and user code to the user while the
// flow polls for completion.
type PromptFunc func(verificationURI, userCode string)

// Client returns an HTTP client that attaches and refreshes the TIDAL token.
// A stored token is reused when present; otherwise the device flow runs and
// prompt is invoked with the verification link. Refreshed tokens are written
// back to the token store.
func (a *Authenticator) Client(ctx context.Context, prompt PromptFunc) (*http.Client, error) {
	token, err := a.store.Load()
	if err != nil && err != shared.ErrNotAuthenticated {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if token == nil || (!token.Valid() && token.RefreshToken == "") {
		token, err = a.deviceLogin(ctx, prompt)
		if err != nil {
			return nil, err
		}
	}

	src := &persistingTokenSource{
		src:   a.config.TokenSource(ctx, token),
		store: a.store,
		last:  token.AccessToken,
	}

	return oauth2.NewClient(ctx, src), nil
}

// deviceLogin runs the OAuth2 device authorization grant.
func (a *Authenticator) deviceLogin(ctx context.Context, prompt PromptFunc) (*oauth2.Token, error) {
	if a.config.ClientID == "" {
		return nil, fmt.Errorf("%w: tidal client_id is not configured", shared.ErrAuthFailed)
	}

	resp, err := a.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device authorization failed: %v", shared.ErrAuthFailed, err)
	}

	if prompt != nil {
		uri := resp.VerificationURIComplete
		if uri == "" {
			uri = resp.VerificationURI
		}
		prompt(uri, resp.UserCode)
	}

	token, err := a.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("%w: device login failed: %v", shared.ErrAuthFailed, err)
	}

	if err := a.store.Save(token); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return token, nil
}

// persistingTokenSource saves refreshed tokens back to the token store so the
// next process start does not need a new login.
type persistingTokenSource struct {
	src   oauth2.TokenSource
	store *TokenStore
	last  string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if saveErr := p.store.Save(token); saveErr != nil {
			// Refresh succeeded; a failed save only costs a re-login later.
			return token, nil
		}
	}

	return token, nil
}
