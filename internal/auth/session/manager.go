// Package session orchestrates the authenticated session lifecycle for a
// vault client: login initiation, callback validation, code exchange, secure
// token persistence, proactive and reactive token refresh, and logout.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/clipvault/clipvault/internal/auth/vault"
	"github.com/clipvault/clipvault/internal/constant"
	"github.com/clipvault/clipvault/internal/securestore"
)

// Manager owns the session credentials for exactly one vault login at a
// time. All token state lives in the secure store; the manager itself holds
// only the refresh coordinator, so a single instance is safe to share across
// concurrent requests.
type Manager struct {
	store securestore.Store
	oauth *vault.VaultAuth

	// refreshGroup collapses concurrent refresh attempts into one network
	// call; every waiter receives the same outcome.
	refreshGroup singleflight.Group

	// now is replaceable in tests.
	now func() time.Time
}

// NewManager constructs a session manager over the given secure store and
// OAuth protocol service.
func NewManager(store securestore.Store, oauth *vault.VaultAuth) *Manager {
	return &Manager{
		store: store,
		oauth: oauth,
		now:   time.Now,
	}
}

// LoginAttempt describes a started login: the URL to open in the system
// browser and the state bound to the eventual callback.
type LoginAttempt struct {
	AuthURL string
	State   string
}

// StartLogin persists the vault origin, generates and persists the PKCE
// verifier and state for this attempt, and returns the authorization URL to
// open in the system browser. It has no side effects beyond those writes.
func (m *Manager) StartLogin(vaultOrigin string) (*LoginAttempt, error) {
	origin, err := vault.NormalizeOrigin(vaultOrigin)
	if err != nil {
		return nil, err
	}
	if err = m.store.Set(constant.KeyVaultOrigin, origin); err != nil {
		return nil, err
	}

	pkceCodes, err := vault.GeneratePKCECodes()
	if err != nil {
		return nil, err
	}
	state, err := vault.GenerateState()
	if err != nil {
		return nil, err
	}

	if err = m.store.Set(constant.KeyCodeVerifier, pkceCodes.CodeVerifier); err != nil {
		return nil, err
	}
	if err = m.store.Set(constant.KeyOAuthState, state); err != nil {
		return nil, err
	}

	authURL, err := m.oauth.GenerateAuthURL(origin, state, pkceCodes)
	if err != nil {
		return nil, err
	}

	log.Debugf("login started against %s", origin)
	return &LoginAttempt{AuthURL: authURL, State: state}, nil
}

// HandleCallback validates the OAuth callback URL against the stored login
// state and returns the authorization code. The stored verifier and state are
// not consumed here; the exchange consumes them.
func (m *Manager) HandleCallback(rawURL string) (string, error) {
	cb, err := vault.ParseCallback(rawURL)
	if err != nil {
		return "", err
	}

	storedState, err := m.store.Get(constant.KeyOAuthState)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return "", vault.ErrStateMismatch
		}
		return "", err
	}
	if cb.State != storedState {
		return "", vault.ErrStateMismatch
	}

	return cb.Code, nil
}

// ExchangeCodeForToken exchanges the authorization code for tokens using the
// stored vault origin and PKCE verifier, scoping the request to this device.
func (m *Manager) ExchangeCodeForToken(ctx context.Context, code string) (*vault.TokenResponse, error) {
	origin, err := m.store.Get(constant.KeyVaultOrigin)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return nil, vault.ErrMissingVaultURL
		}
		return nil, err
	}
	verifier, err := m.store.Get(constant.KeyCodeVerifier)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return nil, vault.ErrMissingVerifier
		}
		return nil, err
	}
	deviceID, err := m.DeviceID()
	if err != nil {
		return nil, err
	}

	return m.oauth.ExchangeCodeForTokens(ctx, origin, code, verifier, deviceID)
}

// StoreTokens persists a token payload. The access token is required; the
// refresh token is stored only when present. The stored expiry always
// reflects this payload: set from expires_in when given, cleared otherwise.
// The ephemeral PKCE verifier and state are erased: they are consumed
// exactly once.
func (m *Manager) StoreTokens(payload *vault.TokenResponse) error {
	if payload == nil || payload.AccessToken == "" {
		return vault.ErrInvalidTokenResponse
	}

	if err := m.store.Set(constant.KeyAccessToken, payload.AccessToken); err != nil {
		return err
	}
	if payload.RefreshToken != "" {
		if err := m.store.Set(constant.KeyRefreshToken, payload.RefreshToken); err != nil {
			return err
		}
	}
	if payload.ExpiresIn > 0 {
		expiresAt := m.now().Add(time.Duration(payload.ExpiresIn) * time.Second).UnixMilli()
		if err := m.store.Set(constant.KeyTokenExpiry, strconv.FormatInt(expiresAt, 10)); err != nil {
			return err
		}
	} else {
		// No expiry on this token set. A leftover expiry from the previous
		// set would mark the fresh token permanently stale, so clear it; the
		// token is then only refreshed reactively on 401.
		_ = m.store.Delete(constant.KeyTokenExpiry)
	}

	_ = m.store.Delete(constant.KeyCodeVerifier)
	_ = m.store.Delete(constant.KeyOAuthState)
	return nil
}

// GetAccessToken returns a valid access token, or "" when the caller must
// treat the session as unauthenticated. A token within ExpiryBuffer of its
// stored expiry is refreshed first; if the refresh fails the session is
// fully logged out and "" is returned. Safe to call concurrently: stale
// callers share a single in-flight refresh.
func (m *Manager) GetAccessToken(ctx context.Context) (string, error) {
	token, err := m.store.Get(constant.KeyAccessToken)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	if !m.tokenStale() {
		return token, nil
	}

	refreshed, err := m.ForceRefresh(ctx)
	if err != nil {
		// ForceRefresh already performed the logout.
		log.Warnf("token refresh failed, session cleared: %v", err)
		return "", nil
	}
	return refreshed, nil
}

// tokenStale reports whether the stored expiry is absent-and-irrelevant or
// within the proactive refresh buffer. A missing expiry means the token is
// never proactively refreshed, only reactively on 401.
func (m *Manager) tokenStale() bool {
	raw, err := m.store.Get(constant.KeyTokenExpiry)
	if err != nil {
		return false
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return m.now().Add(constant.ExpiryBuffer).UnixMilli() >= expiresAt
}

// RefreshToken redeems the stored refresh token for a new token set and
// persists it. A missing refresh token is terminal (ErrMissingRefreshToken);
// transport and server errors propagate untouched so the caller decides
// whether to force a logout.
func (m *Manager) RefreshToken(ctx context.Context) (*vault.TokenResponse, error) {
	origin, err := m.store.Get(constant.KeyVaultOrigin)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return nil, vault.ErrMissingVaultURL
		}
		return nil, err
	}
	refreshToken, err := m.store.Get(constant.KeyRefreshToken)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return nil, vault.ErrMissingRefreshToken
		}
		return nil, err
	}
	deviceID, err := m.DeviceID()
	if err != nil {
		return nil, err
	}

	payload, err := m.oauth.RefreshTokens(ctx, origin, refreshToken, deviceID)
	if err != nil {
		return nil, err
	}
	if err = m.StoreTokens(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ForceRefresh performs exactly one refresh regardless of how many callers
// request it concurrently; every caller receives the same new access token
// or the same error. A failed refresh logs the session out before returning.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	result, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		payload, errRefresh := m.RefreshToken(ctx)
		if errRefresh != nil {
			if errLogout := m.Logout(); errLogout != nil {
				log.Warnf("logout after failed refresh: %v", errLogout)
			}
			return nil, errRefresh
		}
		return payload.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Logout deletes every session key. The device identifier deliberately
// survives so device-scoped server state remains stable across logins.
func (m *Manager) Logout() error {
	var firstErr error
	for _, key := range []string{
		constant.KeyVaultOrigin,
		constant.KeyCodeVerifier,
		constant.KeyOAuthState,
		constant.KeyAccessToken,
		constant.KeyRefreshToken,
		constant.KeyTokenExpiry,
	} {
		if err := m.store.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsAuthenticated reports whether an access token is present, ignoring
// expiry. Suitable only for UI gating; use GetAccessToken before making an
// authenticated call.
func (m *Manager) IsAuthenticated() bool {
	_, err := m.store.Get(constant.KeyAccessToken)
	return err == nil
}

// VaultOrigin returns the stored vault origin, or "" when none is stored.
func (m *Manager) VaultOrigin() string {
	origin, err := m.store.Get(constant.KeyVaultOrigin)
	if err != nil {
		return ""
	}
	return origin
}

// DeviceID returns the stable device identifier, generating and persisting
// one on first use. The server uses it to scope refresh tokens per device.
func (m *Manager) DeviceID() (string, error) {
	id, err := m.store.Get(constant.KeyDeviceID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, securestore.ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err = m.store.Set(constant.KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
