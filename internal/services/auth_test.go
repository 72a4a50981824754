package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/tidalwatch/internal/shared"
	"golang.org/x/oauth2"
)

func TestTokenStore(t *testing.T) {
	t.Run("load before save", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))

		_, err := store.Load()
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "tokens", "token.json"))

		token := &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
		}
		if err := store.Save(token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("corrupt token file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := NewTokenStore(path).Load()
		if err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestPersistingTokenSource(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))

	refreshed := &oauth2.Token{AccessToken: "new", RefreshToken: "r"}
	src := &persistingTokenSource{
		src:   oauth2.StaticTokenSource(refreshed),
		store: store,
		last:  "old",
	}

	token, err := src.Token()
	if err != nil {
		t.Fatalf("token source failed: %v", err)
	}
	if token.AccessToken != "new" {
		t.Errorf("unexpected access token %q", token.AccessToken)
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatalf("expected refreshed token persisted: %v", err)
	}
	if saved.AccessToken != "new" {
		t.Errorf("expected new token saved, got %q", saved.AccessToken)
	}

	t.Run("unchanged token is not re-saved", func(t *testing.T) {
		if err := os.Remove(store.path); err != nil {
			t.Fatal(err)
		}

		if _, err := src.Token(); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Error("expected no save for unchanged access token")
		}
	})
}

func TestDeviceLoginRequiresClientID(t *testing.T) {
	auth := NewAuthenticator("", filepath.Join(t.TempDir(), "token.json"))

	_, err := auth.deviceLogin(t.Context(), nil)
	if !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}
