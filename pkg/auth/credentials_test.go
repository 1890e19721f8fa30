package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestManagerLifecycle(t *testing.T) {
	mem := NewMemoryStore()
	manager := NewManagerWithStores(nil, mem)
	manager.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	account := &Account{Username: "operator", Password: "hunter22"}
	name, err := manager.Store(account)
	require.NoError(t, err)
	assert.Equal(t, "memory", name)
	assert.Equal(t, 2026, account.LastModified.Year())

	retrieved, err := manager.Retrieve("operator")
	require.NoError(t, err)
	assert.Equal(t, "hunter22", retrieved.Password)

	resolved, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "operator", resolved.Username)

	require.NoError(t, manager.Delete("operator"))
	_, err = manager.Retrieve("operator")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, manager.Delete("operator"), ErrCredentialsNotFound)
	assert.Equal(t, 0, mem.Len())
}

func TestManagerStoreValidation(t *testing.T) {
	manager := NewManagerWithStores(nil, NewMemoryStore())

	_, err := manager.Store(&Account{Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = manager.Store(&Account{Username: "operator"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = manager.Store(nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewManagerWithStores(nil).Store(&Account{Username: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestManagerStoreFallsThrough(t *testing.T) {
	broken := NewMemoryStore()
	broken.Err = errors.New("keychain locked")
	backup := NewMemoryStore()
	manager := NewManagerWithStores(nil, broken, backup)

	name, err := manager.Store(&Account{Username: "operator", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "memory", name)
	assert.Equal(t, 1, backup.Len())

	backup.Err = errors.New("disk full")
	_, err = manager.Store(&Account{Username: "other", Password: "pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain locked")
	assert.Contains(t, err.Error(), "disk full")
}

func TestManagerListMergesStores(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	first := NewMemoryStore(
		&Account{Username: "b_user", Password: "old", LastModified: older},
	)
	second := NewMemoryStore(
		&Account{Username: "b_user", Password: "new", LastModified: newer},
		&Account{Username: "a_user", Password: "pw", LastModified: older},
	)
	failing := NewMemoryStore()
	failing.Err = errors.New("unavailable")

	accounts, err := NewManagerWithStores(nil, first, failing, second).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a_user", accounts[0].Username)
	assert.Equal(t, "new", accounts[1].Password)
}

func TestManagerDeleteAll(t *testing.T) {
	mem := NewMemoryStore(
		&Account{Username: "a", Password: "1"},
		&Account{Username: "b", Password: "2"},
	)
	removed, err := NewManagerWithStores(nil, mem).DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, mem.Len())
}

func TestEnvironmentComesFirst(t *testing.T) {
	t.Setenv(EnvUsername, "env_user")
	t.Setenv(EnvPassword, "env_pass")

	mem := NewMemoryStore(&Account{Username: "stored", Password: "p"})
	manager := NewManagerWithStores(NewEnvironmentStore(), mem)

	account, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "env_user", account.Username)

	account, err = manager.Resolve("stored")
	require.NoError(t, err)
	assert.Equal(t, "p", account.Password)

	account, err = manager.Retrieve("env_user")
	require.NoError(t, err)
	assert.Equal(t, "env_pass", account.Password)

	// the environment is never listed as a stored account
	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "stored", accounts[0].Username)
}

func TestResolveWithoutAccounts(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, err := NewManagerWithStores(NewEnvironmentStore(), NewMemoryStore()).Resolve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStoreLookup(t *testing.T) {
	env := map[string]string{}
	store := &EnvironmentStore{getenv: func(k string) string { return env[k] }}

	_, ok := store.Lookup("")
	assert.False(t, ok)

	env[EnvUsername] = "env_user"
	_, ok = store.Lookup("")
	assert.False(t, ok, "a username alone is not a login")

	env[EnvPassword] = "env_pass"
	account, ok := store.Lookup("")
	require.True(t, ok)
	assert.Equal(t, "env_pass", account.Password)

	_, ok = store.Lookup("env_user")
	assert.True(t, ok)
	_, ok = store.Lookup("someone_else")
	assert.False(t, ok)
}

func TestVaultStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.vault")

	store, err := NewVaultStore(path, "test_passphrase_123")
	require.NoError(t, err)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	require.NoError(t, store.Store(&Account{Username: "operator", Password: "plaintext-secret"}))
	require.NoError(t, store.Store(&Account{Username: "auditor", Password: "second"}))

	retrieved, err := store.Retrieve("operator")
	require.NoError(t, err)
	assert.Equal(t, "plaintext-secret", retrieved.Password)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "auditor", accounts[0].Username)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("plaintext-secret")), "vault holds plaintext password")
	assert.False(t, bytes.Contains(content, []byte("operator")), "vault holds plaintext username")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// a different passphrase cannot read it
	other, err := NewVaultStore(path, "another_passphrase")
	require.NoError(t, err)
	_, err = other.Retrieve("operator")
	assert.Error(t, err)

	require.NoError(t, store.Delete("operator"))
	require.NoError(t, store.Delete("auditor"))
	assert.NoFileExists(t, path, "vault removed with the last account")
	assert.ErrorIs(t, store.Delete("operator"), ErrCredentialsNotFound)

	_, err = NewVaultStore(path, "")
	assert.Error(t, err)
}

func TestVaultPassphrase(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvPassphrase, "from-env")
	pass, err := vaultPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", pass)
	assert.NoFileExists(t, filepath.Join(dir, ".passphrase"))

	t.Setenv(EnvPassphrase, "")
	generated, err := vaultPassphrase(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, generated)

	again, err := vaultPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, generated, again, "generated passphrase is reused")
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)
	assert.Equal(t, "keychain", store.Name())

	require.NoError(t, store.Store(&Account{Username: "zed", Password: "1"}))
	require.NoError(t, store.Store(&Account{Username: "amy", Password: "2"}))
	require.NoError(t, store.Store(&Account{Username: "amy", Password: "3"}))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "amy", accounts[0].Username)
	assert.Equal(t, "3", accounts[0].Password)

	require.NoError(t, store.Delete("amy"))
	_, err = store.Retrieve("amy")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Delete("amy"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "zed", accounts[0].Username)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Username: "operator", Password: "hunter22", LastModified: time.Now()}

	sanitized := SanitizeAccount(account)
	assert.Equal(t, "operator", sanitized.Username)
	assert.Equal(t, "********", sanitized.Password)
	assert.Equal(t, "hunter22", account.Password, "original must not change")

	assert.Empty(t, SanitizeAccount(&Account{Username: "x"}).Password)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestShowCredentialGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCredentialGuide(&buf)
	assert.Contains(t, buf.String(), EnvUsername)
	assert.Contains(t, buf.String(), "auth login")

	buf.Reset()
	ShowQuickGuide(&buf)
	assert.Contains(t, buf.String(), EnvPassword)
}
