// Package constant defines protocol and storage constants used throughout
// the clipvault client. These values identify the OAuth client, the vault
// endpoints, and the secure-store key names, ensuring consistent naming
// across the application.
package constant

import "time"

const (
	// ClientID is the fixed OAuth2 client identifier registered with vault servers.
	ClientID = "clipvault-mobile"

	// CallbackScheme is the deep-link scheme vault servers redirect back to.
	CallbackScheme = "clipvault"

	// CallbackPath is the path component of the OAuth callback endpoint,
	// shared between the deep-link form and the loopback listener.
	CallbackPath = "/auth/callback"

	// DefaultCallbackPort is the loopback port used when the config does not
	// override it.
	DefaultCallbackPort = 54545

	// AuthorizePath is the authorization endpoint on the vault origin.
	AuthorizePath = "/oauth/authorize"

	// TokenPath is the authorization-code exchange endpoint on the vault origin.
	TokenPath = "/oauth/token"

	// RefreshPath is the refresh-token endpoint on the vault origin.
	RefreshPath = "/oauth/token/refresh"

	// ExpiryBuffer is how long before the stored expiry an access token is
	// treated as stale and proactively refreshed. Tunable: 60s has not been
	// validated under networks where the refresh itself takes longer.
	ExpiryBuffer = 60 * time.Second

	// DestinationDefaultTTL is the expiry assumed for destination tokens whose
	// payload carries no usable expiresAt claim.
	DestinationDefaultTTL = 30 * 24 * time.Hour
)

// Secure-store key names. Confidentiality is the contract; the names are
// only identifiers within the OS keychain service.
const (
	KeyVaultOrigin  = "vault_origin"
	KeyCodeVerifier = "code_verifier"
	KeyOAuthState   = "oauth_state"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
	KeyDeviceID     = "device_id"
)
