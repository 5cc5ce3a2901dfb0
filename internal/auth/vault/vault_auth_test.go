package vault

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGenerateAuthURL(t *testing.T) {
	auth := NewVaultAuth("http://127.0.0.1:54545/auth/callback", 5*time.Second)

	pkceCodes := &PKCECodes{CodeVerifier: "verifier", CodeChallenge: "challenge"}
	authURL, err := auth.GenerateAuthURL("https://vault.test", "state-123", pkceCodes)
	if err != nil {
		t.Fatalf("GenerateAuthURL() error = %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("auth URL does not parse: %v", err)
	}
	if parsed.Scheme+"://"+parsed.Host != "https://vault.test" {
		t.Errorf("auth URL origin = %s://%s, want https://vault.test", parsed.Scheme, parsed.Host)
	}
	if parsed.Path != "/oauth/authorize" {
		t.Errorf("auth URL path = %q, want /oauth/authorize", parsed.Path)
	}

	query := parsed.Query()
	wantParams := map[string]string{
		"response_type":         "code",
		"client_id":             "clipvault-mobile",
		"redirect_uri":          "http://127.0.0.1:54545/auth/callback",
		"code_challenge":        "challenge",
		"code_challenge_method": "S256",
		"state":                 "state-123",
	}
	for key, want := range wantParams {
		if got := query.Get(key); got != want {
			t.Errorf("query %s = %q, want %q", key, got, want)
		}
	}
}

func TestGenerateAuthURL_RequiresPKCE(t *testing.T) {
	auth := NewVaultAuth("http://127.0.0.1:54545/auth/callback", 5*time.Second)
	if _, err := auth.GenerateAuthURL("https://vault.test", "s", nil); err == nil {
		t.Error("GenerateAuthURL() with nil PKCE codes succeeded, want error")
	}
}

func TestExchangeCodeForTokens(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			t.Errorf("path = %q, want /oauth/token", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	auth := NewVaultAuth("http://127.0.0.1:54545/auth/callback", 5*time.Second)
	resp, err := auth.ExchangeCodeForTokens(context.Background(), server.URL, "code-1", "verifier-1", "device-1")
	if err != nil {
		t.Fatalf("ExchangeCodeForTokens() error = %v", err)
	}

	if resp.AccessToken != "at-1" || resp.RefreshToken != "rt-1" || resp.ExpiresIn != 3600 {
		t.Errorf("unexpected token response: %+v", resp)
	}

	wantFields := map[string]string{
		"grant_type":    "authorization_code",
		"code":          "code-1",
		"code_verifier": "verifier-1",
		"redirect_uri":  "http://127.0.0.1:54545/auth/callback",
		"client_id":     "clipvault-mobile",
		"device_id":     "device-1",
	}
	for key, want := range wantFields {
		if got, _ := gotBody[key].(string); got != want {
			t.Errorf("request body %s = %q, want %q", key, got, want)
		}
	}
}

func TestExchangeCodeForTokens_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "code already used",
		})
	}))
	defer server.Close()

	auth := NewVaultAuth("http://127.0.0.1:54545/auth/callback", 5*time.Second)
	_, err := auth.ExchangeCodeForTokens(context.Background(), server.URL, "code-1", "verifier-1", "device-1")
	if err == nil {
		t.Fatal("ExchangeCodeForTokens() succeeded, want error")
	}

	if !IsAuthErrorType(err, "token_exchange_failed") {
		t.Errorf("error = %v, want token_exchange_failed", err)
	}
	var oauthErr *OAuthError
	if !errors.As(err, &oauthErr) {
		t.Fatalf("error chain = %v, want wrapped *OAuthError", err)
	}
	if oauthErr.Code != "invalid_grant" || oauthErr.Description != "code already used" {
		t.Errorf("server detail not preserved: %+v", oauthErr)
	}
}

func TestRefreshTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token/refresh" {
			t.Errorf("path = %q, want /oauth/token/refresh", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if got, _ := body["grant_type"].(string); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got, _ := body["refresh_token"].(string); got != "rt-1" {
			t.Errorf("refresh_token = %q, want rt-1", got)
		}
		if got, _ := body["device_id"].(string); got != "device-1" {
			t.Errorf("device_id = %q, want device-1", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-2",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	auth := NewVaultAuth("http://127.0.0.1:54545/auth/callback", 5*time.Second)
	resp, err := auth.RefreshTokens(context.Background(), server.URL, "rt-1", "device-1")
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if resp.AccessToken != "at-2" {
		t.Errorf("AccessToken = %q, want at-2", resp.AccessToken)
	}
}

func TestRefreshTokens_MissingToken(t *testing.T) {
	auth := NewVaultAuth("http://127.0.0.1:54545/auth/callback", 5*time.Second)
	_, err := auth.RefreshTokens(context.Background(), "https://vault.test", "", "device-1")
	if !IsAuthErrorType(err, "missing_refresh_token") {
		t.Errorf("error = %v, want missing_refresh_token", err)
	}
}
