package auth

import "os"

// Environment variables holding the site login
const (
	EnvUsername = "CATALOG_USERNAME"
	EnvPassword = "CATALOG_PASSWORD"
)

// EnvironmentStore reads one account from the environment. It is read-only.
type EnvironmentStore struct {
	getenv func(string) string
}

// NewEnvironmentStore reads from the process environment
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{getenv: os.Getenv}
}

// Lookup returns the environment account when both variables are set and,
// if username is not empty, it names that account
func (e *EnvironmentStore) Lookup(username string) (*Account, bool) {
	account := &Account{
		Username: e.getenv(EnvUsername),
		Password: e.getenv(EnvPassword),
	}
	if account.Validate() != nil {
		return nil, false
	}
	if username != "" && username != account.Username {
		return nil, false
	}
	return account, true
}
