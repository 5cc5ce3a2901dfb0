// Package vault implements the client side of the OAuth2 authorization-code
// flow with PKCE (Proof Key for Code Exchange) against a user-specified vault
// server. It covers PKCE code generation, authorization URL construction,
// callback parsing, code exchange, and token refresh.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCECodes holds a verifier/challenge pair for one login attempt.
// The verifier stays on the client and is sent only at exchange time;
// the challenge is sent in the authorization request.
type PKCECodes struct {
	CodeVerifier  string `json:"code_verifier"`
	CodeChallenge string `json:"code_challenge"`
}

// GeneratePKCECodes generates a PKCE code verifier and challenge pair
// following RFC 7636 specifications for the OAuth 2.0 PKCE extension.
// This ensures that only the client that initiated the authorization
// request can exchange the resulting authorization code.
//
// Returns:
//   - *PKCECodes: A struct containing the code verifier and challenge
//   - error: An error if secure random generation fails, nil otherwise
func GeneratePKCECodes() (*PKCECodes, error) {
	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	// Generate code challenge using the S256 method
	codeChallenge := generateCodeChallenge(codeVerifier)

	return &PKCECodes{
		CodeVerifier:  codeVerifier,
		CodeChallenge: codeChallenge,
	}, nil
}

// GenerateState creates a random state parameter binding one authorization
// request to its callback. The callback's state must match exactly or the
// login attempt is rejected as a possible CSRF.
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}

// generateCodeVerifier creates a cryptographically random string of
// 43 characters using URL-safe base64 encoding without padding.
// A failure of the secure random source is fatal; weaker randomness is
// never substituted.
func generateCodeVerifier() (string, error) {
	// 32 random bytes encode to 43 base64url characters
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}

// generateCodeChallenge creates a SHA256 hash of the code verifier's ASCII
// bytes and encodes it using URL-safe base64 encoding without padding,
// per RFC 7636 §4.2. The server reproduces this value from the verifier
// presented at exchange time.
func generateCodeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(hash[:])
}
