package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/clipvault/clipvault/internal/constant"
)

// TokenResponse represents the response structure from a vault's OAuth token
// endpoints. ExpiresIn and RefreshToken are optional: a refresh response may
// rotate only the access token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// VaultAuth is the HTTP protocol participant for a vault's OAuth endpoints.
// It builds authorization URLs and performs the code-exchange and refresh
// requests. It holds no session state; the session manager owns persistence.
type VaultAuth struct {
	httpClient  *http.Client
	redirectURI string
}

// NewVaultAuth creates a new vault authentication service using the given
// redirect URI for the authorization request and exchange.
func NewVaultAuth(redirectURI string, timeout time.Duration) *VaultAuth {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VaultAuth{
		httpClient:  &http.Client{Timeout: timeout},
		redirectURI: redirectURI,
	}
}

// RedirectURI returns the redirect URI this service was configured with.
func (a *VaultAuth) RedirectURI() string {
	return a.redirectURI
}

// GenerateAuthURL creates the OAuth authorization URL with PKCE for the
// given vault origin.
//
// Parameters:
//   - origin: The vault origin (scheme + host, no path)
//   - state: A random state parameter for CSRF protection
//   - pkceCodes: The PKCE codes for secure code exchange
//
// Returns:
//   - string: The complete authorization URL
//   - error: An error if the PKCE codes are missing
func (a *VaultAuth) GenerateAuthURL(origin, state string, pkceCodes *PKCECodes) (string, error) {
	if pkceCodes == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {constant.ClientID},
		"redirect_uri":          {a.redirectURI},
		"code_challenge":        {pkceCodes.CodeChallenge},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(origin, "/"), constant.AuthorizePath, params.Encode()), nil
}

// ExchangeCodeForTokens exchanges an authorization code for access tokens.
// It sends the code together with the PKCE verifier and the stable device
// identifier so the server can scope the issued refresh token per device.
//
// Parameters:
//   - ctx: The context for the request
//   - origin: The vault origin the login was started against
//   - code: The authorization code received from the OAuth callback
//   - codeVerifier: The PKCE verifier generated at login start
//   - deviceID: The stable device identifier
//
// Returns:
//   - *TokenResponse: The raw token payload from the server
//   - error: An AuthenticationError wrapping the server detail on failure
func (a *VaultAuth) ExchangeCodeForTokens(ctx context.Context, origin, code, codeVerifier, deviceID string) (*TokenResponse, error) {
	reqBody := map[string]any{
		"grant_type":    "authorization_code",
		"code":          code,
		"code_verifier": codeVerifier,
		"redirect_uri":  a.redirectURI,
		"client_id":     constant.ClientID,
		"device_id":     deviceID,
	}

	resp, err := a.postJSON(ctx, strings.TrimRight(origin, "/")+constant.TokenPath, reqBody)
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenExchangeFailed, err)
	}
	return resp, nil
}

// RefreshTokens exchanges a refresh token for a new access token,
// extending the authenticated session.
//
// Parameters:
//   - ctx: The context for the request
//   - origin: The vault origin the session belongs to
//   - refreshToken: The refresh token to redeem
//   - deviceID: The stable device identifier
//
// Returns:
//   - *TokenResponse: The new token payload
//   - error: The transport or server error, untouched, on failure
func (a *VaultAuth) RefreshTokens(ctx context.Context, origin, refreshToken, deviceID string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	reqBody := map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     constant.ClientID,
		"device_id":     deviceID,
	}

	return a.postJSON(ctx, strings.TrimRight(origin, "/")+constant.RefreshPath, reqBody)
}

// postJSON issues a JSON POST to an OAuth endpoint and decodes the token
// payload. Non-2xx responses are surfaced as OAuthError when the body carries
// an error code, otherwise as a plain error with the raw body.
func (a *VaultAuth) postJSON(ctx context.Context, endpoint string, reqBody map[string]any) (*TokenResponse, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if code := gjson.GetBytes(body, "error").String(); code != "" {
			return nil, NewOAuthError(code, gjson.GetBytes(body, "error_description").String(), resp.StatusCode)
		}
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err = json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	return &tokenResp, nil
}
