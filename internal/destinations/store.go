package destinations

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/clipvault/clipvault/internal/auth/vault"
	"github.com/clipvault/clipvault/internal/constant"
)

// Destination is one saved upload target: a normalized vault origin plus the
// token that authorizes uploads to it.
type Destination struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Server    string `json:"server"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// Store persists the destination list as a single ordered JSON file. It is
// deliberately separate from the secure credential store: destination tokens
// are upload-scoped and less sensitive than session credentials.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore creates a destination store persisting to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Add saves a destination for the given server. At most one destination
// exists per normalized origin: adding for a known origin overwrites that
// entry's token and name in place, keeping its ID and list position.
//
// The expiry is peeked from the token payload's expiresAt claim when present
// and numeric; a malformed or claim-less token is tolerated and defaults to
// thirty days from now.
func (s *Store) Add(server, token, name string) (*Destination, error) {
	origin, err := vault.NormalizeOrigin(server)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("destination token is empty")
	}
	if name == "" {
		name = originHost(origin)
	}

	expiresAt := s.now().Add(constant.DestinationDefaultTTL).UTC().Format(time.RFC3339)
	if claims, errPeek := PeekClaims(token); errPeek == nil && claims.ExpiresAt > 0 {
		expiresAt = time.Unix(claims.ExpiresAt, 0).UTC().Format(time.RFC3339)
	} else if errPeek != nil {
		log.Debugf("destination token payload not decodable, using default expiry: %v", errPeek)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range list {
		if list[i].Server == origin {
			list[i].Token = token
			list[i].Name = name
			list[i].ExpiresAt = expiresAt
			if err = s.save(list); err != nil {
				return nil, err
			}
			return &list[i], nil
		}
	}

	dest := Destination{
		ID:        uuid.NewString(),
		Name:      name,
		Server:    origin,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	list = append(list, dest)
	if err = s.save(list); err != nil {
		return nil, err
	}
	return &dest, nil
}

// Remove deletes the destination with the given ID. Removing an unknown ID
// is not an error.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	filtered := list[:0]
	for _, d := range list {
		if d.ID != id {
			filtered = append(filtered, d)
		}
	}
	return s.save(filtered)
}

// List returns all destinations in insertion order.
func (s *Store) List() ([]Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the destination with the given ID, or nil when unknown.
func (s *Store) Get(id string) (*Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

func (s *Store) load() ([]Destination, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read destinations: %w", err)
	}

	var list []Destination
	if err = json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse destinations: %w", err)
	}
	return list, nil
}

func (s *Store) save(list []Destination) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode destinations: %w", err)
	}
	return os.WriteFile(s.path, raw, 0600)
}

func originHost(origin string) string {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return origin
	}
	return parsed.Host
}
