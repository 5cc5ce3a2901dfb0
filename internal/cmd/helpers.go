// Package cmd wires the CLI subcommands to the session manager, the
// destination store, and the authenticated client.
package cmd

import (
	"time"

	"github.com/clipvault/clipvault/internal/auth/session"
	"github.com/clipvault/clipvault/internal/auth/vault"
	"github.com/clipvault/clipvault/internal/config"
	"github.com/clipvault/clipvault/internal/destinations"
	"github.com/clipvault/clipvault/internal/securestore"
)

// newSessionManager builds the process-wide session manager: OS-keychain
// credential storage plus the OAuth protocol service for the configured
// redirect URI. Constructed once per invocation and passed by reference.
func newSessionManager(cfg *config.Config) *session.Manager {
	oauth := vault.NewVaultAuth(cfg.RedirectURI(), requestTimeout(cfg))
	return session.NewManager(securestore.NewKeyringStore(), oauth)
}

// newDestinationStore builds the destination store over the data directory.
func newDestinationStore(cfg *config.Config) *destinations.Store {
	return destinations.NewStore(cfg.DestinationsPath())
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}
