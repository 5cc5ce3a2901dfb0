package vault

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Callback captures the parsed OAuth callback parameters.
type Callback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback extracts OAuth parameters from a callback URL. It accepts
// both deep-link (clipvault://auth/callback?...) and loopback
// (http://127.0.0.1:port/auth/callback?...) forms, plus a bare query string
// pasted by the user.
//
// A server-reported error becomes an OAuthError carrying the description.
// A callback without code or state fails with ErrMissingCode /
// ErrMissingState respectively. State verification against the stored value
// is the session manager's job, not this parser's.
func ParseCallback(input string) (*Callback, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrMissingCode
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		if strings.HasPrefix(candidate, "?") || strings.HasPrefix(candidate, "/") {
			candidate = "http://localhost" + candidate
		} else if strings.Contains(candidate, "=") {
			candidate = "http://localhost/?" + candidate
		} else {
			return nil, fmt.Errorf("invalid callback URL")
		}
	}

	parsedURL, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("invalid callback URL: %w", err)
	}

	query := parsedURL.Query()
	cb := &Callback{
		Code:             strings.TrimSpace(query.Get("code")),
		State:            strings.TrimSpace(query.Get("state")),
		Error:            strings.TrimSpace(query.Get("error")),
		ErrorDescription: strings.TrimSpace(query.Get("error_description")),
	}

	if cb.Error != "" {
		return nil, NewOAuthError(cb.Error, cb.ErrorDescription, http.StatusUnauthorized)
	}
	if cb.Code == "" {
		return nil, ErrMissingCode
	}
	if cb.State == "" {
		return nil, ErrMissingState
	}

	return cb, nil
}
