package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated passphrase of the vault
const EnvPassphrase = "CATALOG_PASSPHRASE"

const (
	vaultVersion    = 2
	vaultSaltSize   = 16
	vaultKeySize    = 32
	vaultIterations = 210000
)

// vaultAAD binds the ciphertext to this file format
var vaultAAD = []byte("catalogscraper-vault-v2")

// vaultFile is the on-disk envelope. Only Ciphertext holds account data.
type vaultFile struct {
	Version    int       `json:"version"`
	Salt       []byte    `json:"salt"`
	Iterations int       `json:"iterations"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Modified   time.Time `json:"modified"`
}

// VaultStore keeps accounts in a file sealed with AES-256-GCM under a
// PBKDF2-derived key
type VaultStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// NewVaultStore opens the vault at path. The file is created on first write.
func NewVaultStore(path, passphrase string) (*VaultStore, error) {
	if passphrase == "" {
		return nil, errors.New("vault passphrase is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &VaultStore{path: path, passphrase: []byte(passphrase)}, nil
}

func (v *VaultStore) Name() string { return "vault" }

func (v *VaultStore) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	return v.update(func(accounts map[string]Account) error {
		accounts[account.Username] = *account
		return nil
	})
}

func (v *VaultStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.open()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (v *VaultStore) List() ([]*Account, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.open()
	if err != nil {
		return nil, err
	}

	list := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		account := account
		list = append(list, &account)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

// Delete removes username. The file is removed with the last account.
func (v *VaultStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	return v.update(func(accounts map[string]Account) error {
		if _, ok := accounts[username]; !ok {
			return ErrCredentialsNotFound
		}
		delete(accounts, username)
		return nil
	})
}

// update applies fn to the decrypted accounts and seals the result
func (v *VaultStore) update(fn func(map[string]Account) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.open()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}

	if len(accounts) == 0 {
		if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove empty vault: %w", err)
		}
		return nil
	}
	return v.seal(accounts)
}

// open decrypts the vault. A missing file is an empty vault.
func (v *VaultStore) open() (map[string]Account, error) {
	accounts := make(map[string]Account)

	content, err := os.ReadFile(v.path)
	if os.IsNotExist(err) {
		return accounts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	var file vaultFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	if file.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported vault version %d", file.Version)
	}

	gcm, err := v.cipher(file.Salt, file.Iterations)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, file.Nonce, file.Ciphertext, vaultAAD)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt vault (wrong passphrase?): %w", err)
	}

	var list []Account
	if err := json.Unmarshal(plaintext, &list); err != nil {
		return nil, fmt.Errorf("failed to parse vault accounts: %w", err)
	}
	for _, account := range list {
		accounts[account.Username] = account
	}
	return accounts, nil
}

// seal encrypts accounts under a fresh salt and nonce and replaces the file atomically
func (v *VaultStore) seal(accounts map[string]Account) error {
	list := make([]Account, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, account)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })

	plaintext, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	file := vaultFile{
		Version:    vaultVersion,
		Salt:       make([]byte, vaultSaltSize),
		Iterations: vaultIterations,
		Modified:   time.Now().UTC(),
	}
	if _, err := rand.Read(file.Salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := v.cipher(file.Salt, file.Iterations)
	if err != nil {
		return err
	}
	file.Nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(file.Nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	file.Ciphertext = gcm.Seal(nil, file.Nonce, plaintext, vaultAAD)

	content, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(v.path), ".vault-*")
	if err != nil {
		return fmt.Errorf("failed to create temp vault: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := os.Rename(tmpPath, v.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	return nil
}

func (v *VaultStore) cipher(salt []byte, iterations int) (cipher.AEAD, error) {
	if len(salt) == 0 || iterations <= 0 {
		return nil, errors.New("vault key parameters missing")
	}
	key := pbkdf2.Key(v.passphrase, salt, iterations, vaultKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// vaultPassphrase returns $CATALOG_PASSPHRASE, or a random passphrase kept
// in dir/.passphrase and generated on first use
func vaultPassphrase(dir string) (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}

	path := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.RawURLEncoding.EncodeToString(b)
	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
