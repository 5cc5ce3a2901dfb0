package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/atotto/clipboard"
	log "github.com/sirupsen/logrus"

	"github.com/clipvault/clipvault/internal/browser"
	"github.com/clipvault/clipvault/internal/constant"
)

// LoginOutcome classifies how an interactive login ended. Cancellation and
// dismissal are ordinary outcomes, distinguishable from failure: a user
// closing the browser mid-flow is not an error.
type LoginOutcome string

const (
	// LoginSuccess means the browser flow completed and tokens are stored.
	LoginSuccess LoginOutcome = "success"
	// LoginCancelled means the user or OS abandoned the browser session.
	LoginCancelled LoginOutcome = "cancel"
	// LoginFailed means the flow ran to a protocol or transport failure.
	LoginFailed LoginOutcome = "failure"
)

// LoginResult reports the outcome of one interactive login attempt.
type LoginResult struct {
	Outcome LoginOutcome
	// ResultURL is the raw callback URL the browser session produced, set on
	// success and on server-reported failures.
	ResultURL string
	// Err carries the failure when Outcome is LoginFailed.
	Err error
}

// LoginOptions controls the interactive login flow.
type LoginOptions struct {
	// NoBrowser suppresses opening the system browser; the auth URL is
	// printed and copied to the clipboard instead.
	NoBrowser bool
}

// Login runs the complete interactive login: start the attempt, hand off to
// the system browser, await the loopback redirect, validate the callback,
// exchange the code, and store the resulting tokens.
func (m *Manager) Login(ctx context.Context, vaultOrigin string, opts *LoginOptions) (*LoginResult, error) {
	if opts == nil {
		opts = &LoginOptions{}
	}

	attempt, err := m.StartLogin(vaultOrigin)
	if err != nil {
		return nil, err
	}

	port, err := callbackPort(m.oauth.RedirectURI())
	if err != nil {
		return nil, err
	}
	server := NewCallbackServer(port)
	if err = server.Start(); err != nil {
		return nil, err
	}
	defer func() {
		_ = server.Stop(context.Background())
	}()

	if opts.NoBrowser || !browser.IsAvailable() {
		printAuthURL(attempt.AuthURL)
	} else if errOpen := browser.OpenURL(attempt.AuthURL); errOpen != nil {
		log.Warnf("failed to open browser: %v", errOpen)
		printAuthURL(attempt.AuthURL)
	}

	callbackURL, err := server.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &LoginResult{Outcome: LoginCancelled}, nil
		}
		return &LoginResult{Outcome: LoginFailed, Err: err}, nil
	}

	code, err := m.HandleCallback(callbackURL)
	if err != nil {
		return &LoginResult{Outcome: LoginFailed, ResultURL: callbackURL, Err: err}, nil
	}

	payload, err := m.ExchangeCodeForToken(ctx, code)
	if err != nil {
		return &LoginResult{Outcome: LoginFailed, ResultURL: callbackURL, Err: err}, nil
	}
	if err = m.StoreTokens(payload); err != nil {
		return &LoginResult{Outcome: LoginFailed, ResultURL: callbackURL, Err: err}, nil
	}

	return &LoginResult{Outcome: LoginSuccess, ResultURL: callbackURL}, nil
}

// printAuthURL prints the authorization URL for manual opening and copies it
// to the clipboard when one is available.
func printAuthURL(authURL string) {
	fmt.Printf("Open this URL in your browser to log in:\n%s\n", authURL)
	if err := clipboard.WriteAll(authURL); err == nil {
		fmt.Println("(the URL has been copied to your clipboard)")
	}
}

// callbackPort extracts the loopback port from the configured redirect URI.
func callbackPort(redirectURI string) (int, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return 0, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if p := parsed.Port(); p != "" {
		return strconv.Atoi(p)
	}
	return constant.DefaultCallbackPort, nil
}
