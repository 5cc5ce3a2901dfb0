package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/clipvault/clipvault/internal/destinations"
)

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	raw, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(raw) + ".sig"
}

func TestFinalizeBody_PerDraftToken(t *testing.T) {
	token := makeToken(t, map[string]any{"draftId": "d-123"})

	// A client-supplied ID must be ignored: the token already encodes one.
	body, err := FinalizeBody(token, "should-not-appear", nil)
	if err != nil {
		t.Fatalf("FinalizeBody() error = %v", err)
	}
	if gjson.GetBytes(body, "draftId").Exists() {
		t.Errorf("body = %s, must not carry draftId for a per-draft token", body)
	}
}

func TestFinalizeBody_DestinationToken(t *testing.T) {
	token := makeToken(t, map[string]any{"expiresAt": 1893456000})

	body, err := FinalizeBody(token, "video-42", map[string]string{"title": "Morning run"})
	if err != nil {
		t.Fatalf("FinalizeBody() error = %v", err)
	}
	if got := gjson.GetBytes(body, "draftId").String(); got != "video-42" {
		t.Errorf("draftId = %q, want video-42", got)
	}
	if got := gjson.GetBytes(body, "title").String(); got != "Morning run" {
		t.Errorf("title = %q, want Morning run", got)
	}
}

func TestFinalizeBody_DestinationTokenRequiresID(t *testing.T) {
	token := makeToken(t, map[string]any{"expiresAt": 1893456000})
	if _, err := FinalizeBody(token, "", nil); err == nil {
		t.Error("FinalizeBody() with destination token and no ID succeeded, want error")
	}
}

func TestFinalizeBody_OpaqueTokenTreatedAsDestination(t *testing.T) {
	body, err := FinalizeBody("opaque-token", "video-42", nil)
	if err != nil {
		t.Fatalf("FinalizeBody() error = %v", err)
	}
	if got := gjson.GetBytes(body, "draftId").String(); got != "video-42" {
		t.Errorf("draftId = %q, want video-42", got)
	}
}

func TestFinalize_SendsBearerAndBody(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != FinalizePath {
			t.Errorf("path = %q, want %s", r.URL.Path, FinalizePath)
		}
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	token := makeToken(t, map[string]any{"expiresAt": 1893456000})
	dest := &destinations.Destination{Server: server.URL, Token: token}

	f := NewFinalizer(5 * time.Second)
	if err := f.Finalize(context.Background(), dest, "video-42", nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if gotAuth != "Bearer "+token {
		t.Errorf("Authorization = %q, want bearer destination token", gotAuth)
	}
	if got := gjson.GetBytes(gotBody, "draftId").String(); got != "video-42" {
		t.Errorf("request draftId = %q, want video-42", got)
	}
}

func TestFinalize_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "token_revoked"})
	}))
	defer server.Close()

	dest := &destinations.Destination{Server: server.URL, Token: "opaque"}
	f := NewFinalizer(5 * time.Second)
	if err := f.Finalize(context.Background(), dest, "video-42", nil); err == nil {
		t.Error("Finalize() succeeded, want error from 403")
	}
}
