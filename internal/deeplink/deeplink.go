// Package deeplink classifies and routes the inbound URLs the client
// understands: OAuth callbacks, destination-configuration links, and
// per-draft upload links.
package deeplink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/internal/constant"
)

// Kind identifies what an inbound URL asks for.
type Kind string

const (
	// KindOAuthCallback is the redirect leg of an interactive login.
	KindOAuthCallback Kind = "oauth_callback"
	// KindConfigureDestination adds or updates a saved upload destination.
	KindConfigureDestination Kind = "configure_destination"
	// KindUpload targets one pre-identified draft with a per-draft token.
	KindUpload Kind = "upload"
)

// Link is a parsed inbound URL.
type Link struct {
	Kind Kind

	// RawURL is the original URL, needed by the login flow for callbacks.
	RawURL string

	// Server, Token and Name are set for configure_destination and upload links.
	Server string
	Token  string
	Name   string

	// DraftID is set for upload links and is always a v4 UUID.
	DraftID string
}

// Parse classifies an inbound URL. Destination-configuration and upload
// links are recognized by their mode query parameter regardless of host and
// path; everything else with an auth/callback path is an OAuth callback.
func Parse(raw string) (*Link, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty link")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid link: %w", err)
	}
	query := parsed.Query()

	switch query.Get("mode") {
	case "configure_destination":
		server := query.Get("server")
		token := query.Get("token")
		if server == "" || token == "" {
			return nil, fmt.Errorf("configure_destination link requires server and token")
		}
		return &Link{
			Kind:   KindConfigureDestination,
			RawURL: trimmed,
			Server: server,
			Token:  token,
			Name:   query.Get("name"),
		}, nil

	case "upload":
		draftID := query.Get("draftId")
		server := query.Get("server")
		token := query.Get("token")
		if server == "" || token == "" {
			return nil, fmt.Errorf("upload link requires server and token")
		}
		id, errParse := uuid.Parse(draftID)
		if errParse != nil || id.Version() != 4 {
			return nil, fmt.Errorf("upload link requires a v4 UUID draftId")
		}
		return &Link{
			Kind:    KindUpload,
			RawURL:  trimmed,
			Server:  server,
			Token:   token,
			DraftID: draftID,
		}, nil
	}

	if isCallbackURL(parsed) {
		return &Link{Kind: KindOAuthCallback, RawURL: trimmed}, nil
	}

	return nil, fmt.Errorf("unrecognized link: %s", trimmed)
}

// isCallbackURL matches both the deep-link form (clipvault://auth/callback)
// and the loopback form (http://127.0.0.1:port/auth/callback). Callback-like
// URLs on a foreign scheme belong to some other application.
func isCallbackURL(u *url.URL) bool {
	joined := strings.Trim(u.Host+u.Path, "/")
	if !strings.HasSuffix(joined, "auth/callback") {
		return false
	}
	switch u.Scheme {
	case constant.CallbackScheme, "http", "https":
		return true
	}
	return false
}
