package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/clipvault/clipvault/internal/auth/session"
	"github.com/clipvault/clipvault/internal/auth/vault"
	"github.com/clipvault/clipvault/internal/config"
)

// LoginOptions controls the interactive login command.
type LoginOptions struct {
	// NoBrowser prints the auth URL instead of opening the system browser.
	NoBrowser bool
}

// DoLogin runs the interactive vault login flow for the given origin.
// Cancellation (Ctrl-C or a dismissed browser session) is reported quietly;
// failures print the most specific message available.
func DoLogin(cfg *config.Config, vaultOrigin string, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager := newSessionManager(cfg)
	result, err := manager.Login(ctx, vaultOrigin, &session.LoginOptions{NoBrowser: options.NoBrowser})
	if err != nil {
		fmt.Printf("Login could not be started: %v\n", err)
		return
	}

	switch result.Outcome {
	case session.LoginSuccess:
		fmt.Printf("Logged in to %s\n", manager.VaultOrigin())
	case session.LoginCancelled:
		fmt.Println("Login cancelled.")
	default:
		fmt.Println(vault.GetUserFriendlyMessage(result.Err))
	}
}

// DoLogout clears the stored session. The device identifier survives.
func DoLogout(cfg *config.Config) {
	manager := newSessionManager(cfg)
	if err := manager.Logout(); err != nil {
		fmt.Printf("Logout failed: %v\n", err)
		return
	}
	fmt.Println("Logged out.")
}

// DoStatus prints whether a session is present and for which vault.
func DoStatus(cfg *config.Config) {
	manager := newSessionManager(cfg)
	if !manager.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return
	}
	fmt.Printf("Logged in to %s\n", manager.VaultOrigin())
}
