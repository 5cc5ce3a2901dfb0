package vault

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeOrigin reduces a user-supplied vault URL to its canonical origin:
// scheme plus host (port kept), lowercased, with any path, query, fragment,
// and trailing slash discarded. A bare host defaults to https.
//
// Two URLs that normalize to the same origin refer to the same vault.
func NormalizeOrigin(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("vault URL is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid vault URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported vault URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("vault URL has no host")
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), nil
}
