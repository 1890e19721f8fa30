package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

const appName = "catalogscraper"

// Account holds the catalog site login
type Account struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	LastModified time.Time `json:"last_modified"`
}

// Validate reports whether the account can be used to log in
func (a *Account) Validate() error {
	switch {
	case a == nil:
		return fmt.Errorf("%w: no account", ErrInvalidCredentials)
	case a.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	case a.Password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidCredentials)
	}
	return nil
}

// CredentialStore persists site accounts
type CredentialStore interface {
	// Name identifies the store in messages, e.g. "keychain"
	Name() string
	Store(account *Account) error
	// Retrieve returns ErrCredentialsNotFound for an unknown username
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
}

// Manager looks accounts up in the environment first, then in the
// persistent stores in order
type Manager struct {
	env    *EnvironmentStore
	stores []CredentialStore
	now    func() time.Time
}

// NewManager uses the system keychain when it is usable and an encrypted
// vault file in the config directory
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	passphrase, err := vaultPassphrase(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault passphrase: %w", err)
	}
	vault, err := NewVaultStore(filepath.Join(configDir, "credentials.vault"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential vault: %w", err)
	}
	stores = append(stores, vault)

	return NewManagerWithStores(NewEnvironmentStore(), stores...), nil
}

// NewManagerWithStores builds a Manager over explicit stores. env may be nil.
func NewManagerWithStores(env *EnvironmentStore, stores ...CredentialStore) *Manager {
	return &Manager{
		env:    env,
		stores: stores,
		now:    time.Now,
	}
}

// Store saves the account in the first store that accepts it and returns that store's name
func (m *Manager) Store(account *Account) (string, error) {
	if err := account.Validate(); err != nil {
		return "", err
	}
	account.LastModified = m.now()

	var errs []error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return store.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}
	if len(errs) == 0 {
		return "", ErrStoreUnavailable
	}
	return "", fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
}

// Retrieve returns the account for username from the first source holding it
func (m *Manager) Retrieve(username string) (*Account, error) {
	if m.env != nil {
		if account, ok := m.env.Lookup(username); ok {
			return account, nil
		}
	}
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for user %s", ErrCredentialsNotFound, username)
}

// Resolve returns the named account. Without a name it prefers the
// environment, then the first stored account by username.
func (m *Manager) Resolve(username string) (*Account, error) {
	if username != "" {
		return m.Retrieve(username)
	}
	if m.env != nil {
		if account, ok := m.env.Lookup(""); ok {
			return account, nil
		}
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}
	return accounts[0], nil
}

// List returns the stored accounts sorted by username. An account kept in
// several stores is listed once, newest copy first.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Username] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

// Delete removes username from every store holding it
func (m *Manager) Delete(username string) error {
	removed := false
	var errs []error
	for _, store := range m.stores {
		err := store.Delete(username)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, ErrCredentialsNotFound):
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
		}
	}

	if removed {
		return nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete credentials: %w", errors.Join(errs...))
	}
	return fmt.Errorf("%w for user %s", ErrCredentialsNotFound, username)
}

// DeleteAll removes every stored account and returns how many were removed
func (m *Manager) DeleteAll() (int, error) {
	accounts, err := m.List()
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, account := range accounts {
		if err := m.Delete(account.Username); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// getConfigDir returns the per-user config directory, creating it
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, appName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", appName)
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeAccount returns a copy with the password masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	masked := *account
	if masked.Password != "" {
		masked.Password = "********"
	}
	return &masked
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
