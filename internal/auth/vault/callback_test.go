package vault

import (
	"errors"
	"testing"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCode  string
		wantState string
		wantErr   string
	}{
		{
			name:      "loopback callback with code and state",
			input:     "http://127.0.0.1:54545/auth/callback?code=ABC&state=S1",
			wantCode:  "ABC",
			wantState: "S1",
		},
		{
			name:      "deep link callback",
			input:     "clipvault://auth/callback?code=XYZ&state=S2",
			wantCode:  "XYZ",
			wantState: "S2",
		},
		{
			name:      "path-only form from the loopback listener",
			input:     "/auth/callback?code=ABC&state=S1",
			wantCode:  "ABC",
			wantState: "S1",
		},
		{
			name:      "bare query string",
			input:     "?code=ABC&state=S1",
			wantCode:  "ABC",
			wantState: "S1",
		},
		{
			name:      "pasted key-value pairs",
			input:     "code=ABC&state=S1",
			wantCode:  "ABC",
			wantState: "S1",
		},
		{
			name:    "server-reported error",
			input:   "clipvault://auth/callback?error=access_denied&error_description=user+said+no",
			wantErr: "oauth",
		},
		{
			name:    "missing code",
			input:   "clipvault://auth/callback?state=S1",
			wantErr: "missing_code",
		},
		{
			name:    "missing state",
			input:   "clipvault://auth/callback?code=ABC",
			wantErr: "missing_state",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: "missing_code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := ParseCallback(tt.input)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseCallback(%q) succeeded, want %s error", tt.input, tt.wantErr)
				}
				if tt.wantErr == "oauth" {
					if !IsOAuthError(err) {
						t.Errorf("ParseCallback(%q) error = %v, want OAuthError", tt.input, err)
					}
					return
				}
				if !IsAuthErrorType(err, tt.wantErr) {
					t.Errorf("ParseCallback(%q) error = %v, want type %s", tt.input, err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseCallback(%q) error = %v", tt.input, err)
			}
			if cb.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", cb.Code, tt.wantCode)
			}
			if cb.State != tt.wantState {
				t.Errorf("State = %q, want %q", cb.State, tt.wantState)
			}
		})
	}
}

func TestParseCallback_ErrorDescription(t *testing.T) {
	_, err := ParseCallback("clipvault://auth/callback?error=server_error&error_description=backend+down")
	if err == nil {
		t.Fatal("expected error")
	}

	var oauthErr *OAuthError
	if !errors.As(err, &oauthErr) {
		t.Fatalf("error = %v, want *OAuthError", err)
	}
	if oauthErr.Code != "server_error" {
		t.Errorf("Code = %q, want server_error", oauthErr.Code)
	}
	if oauthErr.Description != "backend down" {
		t.Errorf("Description = %q, want %q", oauthErr.Description, "backend down")
	}
}
