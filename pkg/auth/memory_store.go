package auth

import (
	"sort"
	"sync"
)

// MemoryStore keeps accounts in memory. Tests use it in place of the
// keychain; setting Err makes every call fail with it.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	Err      error
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore(accounts ...*Account) *MemoryStore {
	m := &MemoryStore{accounts: make(map[string]Account)}
	for _, a := range accounts {
		m.accounts[a.Username] = *a
	}
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Store(account *Account) error {
	if m.Err != nil {
		return m.Err
	}
	if err := account.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Username] = *account
	return nil
}

func (m *MemoryStore) Retrieve(username string) (*Account, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (m *MemoryStore) List() ([]*Account, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		account := account
		list = append(list, &account)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

func (m *MemoryStore) Delete(username string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

// Len returns the number of accounts held
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}
