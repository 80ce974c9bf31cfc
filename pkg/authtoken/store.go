// pkg/authtoken/store.go
package authtoken

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no token stored")
	ErrInvalidToken = errors.New("invalid token")
)

// Store persists the bearer token in a file under the user config dir,
// the terminal-client analogue of browser local storage.
type Store struct {
	path string

	mu    sync.Mutex
	token string
}

// NewStore opens the default token store (~/.config/taskdeck/token).
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return Open(filepath.Join(home, ".config", "taskdeck", "token"))
}

// Open opens a token store at an explicit path, loading any existing token.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// Token returns the stored token, or the empty string when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Save persists a new token.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	s.token = token
	return nil
}

// Clear removes the stored token. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// ExpiresAt returns the token's expiry claim. The client holds no signing
// key, so the claims are parsed without verification; the server remains the
// authority and will reject a forged token anyway.
func (s *Store) ExpiresAt() (time.Time, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return time.Time{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	return exp.Time, nil
}

// Expired reports whether the stored token is missing, malformed or past
// its expiry, so callers can prompt for login before a doomed request.
func (s *Store) Expired() bool {
	exp, err := s.ExpiresAt()
	if err != nil {
		return true
	}
	return time.Now().After(exp)
}
