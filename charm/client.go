// ABOUTME: Charm KV client used as the remote backup target
// ABOUTME: One process-wide client, opened lazily and guarded by a mutex

package charm

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
)

// kvStore is the part of charm/kv the backups rely on. Tests swap in a
// local badger database.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

type Client struct {
	mu     sync.RWMutex
	store  kvStore
	config *Config
	// identity resolves the charm account id; nil means ask the server.
	identity func() (string, error)
}

// GetClient opens the shared client on first use.
func GetClient() (*Client, error) {
	clientOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			clientErr = fmt.Errorf("failed to load config: %w", err)
			return
		}
		globalClient, clientErr = NewClient(cfg)
	})
	if clientErr != nil {
		return nil, clientErr
	}
	return globalClient, nil
}

// NewClient opens the leadline KV database on cfg.Host, pulling remote
// changes first when auto-sync is on.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// charm/kv only reads the host from the environment
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return &Client{store: db, config: cfg}, nil
}

func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm account id of this device's SSH key.
func (c *Client) ID() (string, error) {
	if c.identity != nil {
		return c.identity()
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Sync()
}

func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Get(key)
}

// Set writes key and pushes it when auto-sync is on.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Set(key, value); err != nil {
		return err
	}
	return c.afterWrite()
}

// Delete removes key and pushes the removal when auto-sync is on.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(key); err != nil {
		return err
	}
	return c.afterWrite()
}

// afterWrite runs with mu held. A failed push leaves the local write in
// place; the next sync retries it.
func (c *Client) afterWrite() error {
	if c.config.AutoSync {
		_ = c.store.Sync()
	}
	return nil
}

// KeysWithPrefix lists keys under prefix.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	c.mu.RLock()
	all, err := c.store.Keys()
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range all {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}
