package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/oauth2"
)

var tokensBucket = []byte("tokens")

var (
	ErrStoreClosed   = errors.New("credential store is closed")
	ErrMissingServer = errors.New("server name is required")
)

// TokenStore persists OAuth2 tokens per server.
type TokenStore interface {
	Token(server string) (*oauth2.Token, error)
	SaveToken(server string, token *oauth2.Token) error
}

// Store is a bbolt-backed TokenStore.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("credential store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o700); err != nil {
		return nil, fmt.Errorf("ensure credential store dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tokensBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init credential store: %w", err)
	}
	return &Store{db: db, path: trimmed}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Token returns the stored token for a server, or nil when none is stored.
func (s *Store) Token(server string) (*oauth2.Token, error) {
	key, err := serverKey(server)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var token *oauth2.Token
	err = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(tokensBucket).Get(key)
		if raw == nil {
			return nil
		}
		var decoded oauth2.Token
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("decode token for %s: %w", server, err)
		}
		token = &decoded
		return nil
	})
	return token, err
}

func (s *Store) SaveToken(server string, token *oauth2.Token) error {
	key, err := serverKey(server)
	if err != nil {
		return err
	}
	if token == nil {
		return errors.New("token is required")
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokensBucket).Put(key, raw)
	})
}

func (s *Store) DeleteToken(server string) error {
	key, err := serverKey(server)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokensBucket).Delete(key)
	})
}

func serverKey(server string) ([]byte, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		return nil, ErrMissingServer
	}
	return []byte(trimmed), nil
}
