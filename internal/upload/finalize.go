// Package upload implements the client side of the upload finalize call,
// enforcing the destination-token duality: a per-draft token already encodes
// its target and must never be paired with a client-supplied ID, while a
// destination token requires the client to name the draft explicitly.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/clipvault/clipvault/internal/destinations"
)

// FinalizePath is the finalize endpoint relative to the destination server.
const FinalizePath = "/api/uploads/finalize"

// FinalizeBody builds the finalize request body for the given upload token.
//
// When the token payload carries a draftId claim the body carries no ID at
// all: the server resolves the target from the token. When it does not (a
// destination token, or a token whose payload cannot be peeked), draftID is
// required and is set explicitly in the body.
func FinalizeBody(token, draftID string, meta map[string]string) ([]byte, error) {
	draftScoped := false
	if claims, err := destinations.PeekClaims(token); err == nil {
		draftScoped = claims.IsDraftScoped()
	}

	body := []byte(`{}`)
	var err error
	if !draftScoped {
		if draftID == "" {
			return nil, fmt.Errorf("destination token requires an explicit draft ID")
		}
		if body, err = sjson.SetBytes(body, "draftId", draftID); err != nil {
			return nil, err
		}
	}

	for key, value := range meta {
		if body, err = sjson.SetBytes(body, key, value); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Finalizer performs finalize calls against saved destinations using the
// destination's own token rather than the session credentials.
type Finalizer struct {
	httpClient *http.Client
}

// NewFinalizer creates a finalizer with the given request timeout.
func NewFinalizer(timeout time.Duration) *Finalizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Finalizer{httpClient: &http.Client{Timeout: timeout}}
}

// Finalize marks an upload complete on the destination server. draftID may
// be empty when dest.Token is draft-scoped.
func (f *Finalizer) Finalize(ctx context.Context, dest *destinations.Destination, draftID string, meta map[string]string) error {
	body, err := FinalizeBody(dest.Token, draftID, meta)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(dest.Server, "/")+FinalizePath, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("failed to create finalize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+dest.Token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("finalize request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read finalize response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if code := gjson.GetBytes(respBody, "error").String(); code != "" {
			return fmt.Errorf("finalize failed: %s", code)
		}
		return fmt.Errorf("finalize failed with status %d", resp.StatusCode)
	}
	return nil
}
