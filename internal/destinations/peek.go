// Package destinations manages the list of saved upload destinations: vault
// servers paired with long-lived upload tokens the user can pick from at
// upload time. It also provides the narrow, unverified "peek" decoder used
// to read display claims out of an upload token.
package destinations

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// TokenClaims holds the only claims the client ever peeks at in an upload
// token payload. The decode is unverified: no signature check is performed
// and nothing here may feed a trust decision. The server remains the source
// of truth for token validity; these values serve display and defaulting.
type TokenClaims struct {
	// DraftID is set when the token is scoped to exactly one pre-identified
	// draft. Empty for destination (server-scoped) tokens.
	DraftID string

	// ExpiresAt is the expiresAt claim in unix seconds, 0 when absent or
	// non-numeric.
	ExpiresAt int64
}

// PeekClaims decodes the payload segment of a JWT-shaped token and extracts
// the draftId and expiresAt claims, tolerating their absence. It fails only
// when the token is not even shaped like a JWT or its payload does not decode.
func PeekClaims(token string) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid token format: expected 3 parts, got %d", len(parts))
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode token payload: %w", err)
	}

	claims := &TokenClaims{
		DraftID: gjson.GetBytes(payload, "draftId").String(),
	}
	if exp := gjson.GetBytes(payload, "expiresAt"); exp.Type == gjson.Number {
		claims.ExpiresAt = exp.Int()
	}
	return claims, nil
}

// IsDraftScoped reports whether the token carries a draftId claim, i.e.
// whether it is a per-draft token rather than a destination token.
func (c *TokenClaims) IsDraftScoped() bool {
	return c.DraftID != ""
}

// base64URLDecode decodes a base64url string, re-adding the padding JWT
// segments omit.
func base64URLDecode(data string) ([]byte, error) {
	switch len(data) % 4 {
	case 2:
		data += "=="
	case 3:
		data += "="
	}
	return base64.URLEncoding.DecodeString(data)
}
