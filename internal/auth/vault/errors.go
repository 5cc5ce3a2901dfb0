package vault

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuthError represents an error reported by the vault's OAuth endpoints.
type OAuthError struct {
	// Code is the OAuth error code (e.g. "invalid_grant", "token_expired").
	Code string `json:"error"`
	// Description is a human-readable description of the error.
	Description string `json:"error_description,omitempty"`
	// StatusCode is the HTTP status code associated with the error.
	StatusCode int `json:"-"`
}

// Error returns a string representation of the OAuth error.
func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("OAuth error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("OAuth error: %s", e.Code)
}

// NewOAuthError creates a new OAuth error with the specified code, description, and status code.
func NewOAuthError(code, description string, statusCode int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		StatusCode:  statusCode,
	}
}

// AuthenticationError represents a client-side authentication failure.
type AuthenticationError struct {
	// Type is the machine-readable kind of authentication error.
	Type string `json:"type"`
	// Message is a human-readable message describing the error.
	Message string `json:"message"`
	// Code is the HTTP status code associated with the error.
	Code int `json:"code"`
	// Cause is the underlying error that caused this authentication error.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Common authentication error values. Callers compare by Type after
// errors.As, never by pointer identity.
var (
	// ErrStateMismatch reports a callback whose state does not match the one
	// stored at login start. Treated as a possible CSRF; the exchange is aborted.
	ErrStateMismatch = &AuthenticationError{
		Type:    "state_mismatch",
		Message: "OAuth state parameter does not match the stored login state",
		Code:    http.StatusBadRequest,
	}

	// ErrMissingCode reports a callback URL without an authorization code.
	ErrMissingCode = &AuthenticationError{
		Type:    "missing_code",
		Message: "Callback URL carries no authorization code",
		Code:    http.StatusBadRequest,
	}

	// ErrMissingState reports a callback URL without a state parameter.
	ErrMissingState = &AuthenticationError{
		Type:    "missing_state",
		Message: "Callback URL carries no state parameter",
		Code:    http.StatusBadRequest,
	}

	// ErrMissingVaultURL reports an exchange or refresh attempted with no
	// stored vault origin.
	ErrMissingVaultURL = &AuthenticationError{
		Type:    "missing_vault_url",
		Message: "No vault server URL has been stored for this session",
		Code:    http.StatusPreconditionFailed,
	}

	// ErrMissingVerifier reports an exchange attempted with no stored PKCE verifier.
	ErrMissingVerifier = &AuthenticationError{
		Type:    "missing_verifier",
		Message: "No PKCE code verifier has been stored for this login attempt",
		Code:    http.StatusPreconditionFailed,
	}

	// ErrMissingRefreshToken reports a refresh attempted with no stored
	// refresh token. Terminal: the user must authenticate again.
	ErrMissingRefreshToken = &AuthenticationError{
		Type:    "missing_refresh_token",
		Message: "No refresh token is stored; re-authentication is required",
		Code:    http.StatusUnauthorized,
	}

	// ErrInvalidTokenResponse reports a token endpoint response without an
	// access token.
	ErrInvalidTokenResponse = &AuthenticationError{
		Type:    "invalid_token_response",
		Message: "Token response is missing an access token",
		Code:    http.StatusBadGateway,
	}

	// ErrTokenExchangeFailed reports a failed authorization-code exchange.
	ErrTokenExchangeFailed = &AuthenticationError{
		Type:    "token_exchange_failed",
		Message: "Failed to exchange authorization code for tokens",
		Code:    http.StatusBadRequest,
	}
)

// NewAuthenticationError creates a new authentication error with a cause based on a base error.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authenticationError *AuthenticationError
	return errors.As(err, &authenticationError)
}

// IsOAuthError checks if an error is an OAuth error.
func IsOAuthError(err error) bool {
	var oAuthError *OAuthError
	return errors.As(err, &oAuthError)
}

// IsAuthErrorType reports whether err is an AuthenticationError of the given type.
func IsAuthErrorType(err error, errType string) bool {
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		return false
	}
	return authErr.Type == errType
}

// GetUserFriendlyMessage returns a user-facing message for an auth failure,
// preferring the most specific detail available.
func GetUserFriendlyMessage(err error) string {
	switch {
	case IsAuthenticationError(err):
		var authErr *AuthenticationError
		errors.As(err, &authErr)
		switch authErr.Type {
		case "state_mismatch":
			return "The login response could not be verified. Please try logging in again."
		case "missing_code", "missing_state":
			return "The login response was incomplete. Please try logging in again."
		case "missing_vault_url":
			return "No vault server is configured. Please start the login again."
		case "missing_refresh_token", "missing_verifier":
			return "Your session could not be restored. Please log in again."
		case "invalid_token_response", "token_exchange_failed":
			return "The vault server returned an unexpected response. Please try again."
		default:
			return "Authentication failed. Please try again."
		}
	case IsOAuthError(err):
		var oauthErr *OAuthError
		errors.As(err, &oauthErr)
		switch oauthErr.Code {
		case "access_denied":
			return "Authentication was cancelled or denied."
		case "invalid_request":
			return "Invalid authentication request. Please try again."
		case "server_error":
			return "Vault server error. Please try again later."
		default:
			if oauthErr.Description != "" {
				return fmt.Sprintf("Authentication failed: %s", oauthErr.Description)
			}
			return fmt.Sprintf("Authentication failed: %s", oauthErr.Code)
		}
	default:
		return "An unexpected error occurred. Please try again."
	}
}
