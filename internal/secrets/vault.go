package secrets

import (
	"fmt"
	"sync"
)

// Loader produces a snapshot of secret material. Implementations read from
// the environment, a file, or an external secret manager.
type Loader func() (map[string]string, error)

// Vault is an in-memory snapshot of secrets with swap-on-reload semantics.
// Provider API keys and the credential encryption key reach the process
// through it instead of ad-hoc os.Getenv calls, so a secret rotation only
// needs a Reload, not a restart.
type Vault struct {
	load Loader

	mu   sync.RWMutex
	data map[string]string
}

// NewVault runs the loader once and returns a vault over the result. A
// loader failure at construction time is fatal; a process that cannot read
// its secrets should not start.
func NewVault(load Loader) (*Vault, error) {
	v := &Vault{load: load, data: map[string]string{}}
	if err := v.Reload(); err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns the value for key, empty if the key is absent.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.data[key]
}

// GetOr returns the value for key, or fallback when the vault has none.
// Callers use it to layer env-provided secrets over config-file values.
func (v *Vault) GetOr(key, fallback string) string {
	if s := v.Get(key); s != "" {
		return s
	}
	return fallback
}

// Reload fetches a fresh snapshot and swaps it in. When the loader fails
// the previous snapshot stays in place and the error is returned.
func (v *Vault) Reload() error {
	data, err := v.load()
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	v.mu.Lock()
	v.data = data
	v.mu.Unlock()
	return nil
}
