// Package results holds the accumulated scrape results of a run and persists
// them as a single JSON document.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"catalogscraper/pkg/models"
)

// Store is an ordered, append-only list of scrape results bound to a document path.
// It is owned by one run and is not safe for concurrent use.
type Store struct {
	path    string
	entries []models.ScrapeResult
}

// New returns an empty store that will be saved to path
func New(path string) *Store {
	return &Store{path: path, entries: []models.ScrapeResult{}}
}

// Load reads the document at path. A missing document yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(path), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read results document: %w", err)
	}

	store := New(path)
	if len(bytes.TrimSpace(data)) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store.entries); err != nil {
		return nil, fmt.Errorf("failed to parse results document %s: %w", path, err)
	}
	if store.entries == nil {
		store.entries = []models.ScrapeResult{}
	}
	return store, nil
}

// Path returns the document path
func (s *Store) Path() string {
	return s.path
}

// Append adds results in order
func (s *Store) Append(results ...models.ScrapeResult) {
	s.entries = append(s.entries, results...)
}

// Entries returns a copy of the accumulated results
func (s *Store) Entries() []models.ScrapeResult {
	out := make([]models.ScrapeResult, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of results
func (s *Store) Len() int {
	return len(s.entries)
}

// KnownIDs returns the numeric product IDs of entries that carry data.
// Entries whose product_id is missing or not an integer are reported in skipped.
func (s *Store) KnownIDs() (known map[int]struct{}, skipped []string) {
	known = make(map[int]struct{})
	for _, entry := range s.entries {
		pid := entry.ProductID()
		if pid == "" {
			continue
		}
		id, err := strconv.Atoi(pid)
		if err != nil {
			skipped = append(skipped, pid)
			continue
		}
		known[id] = struct{}{}
	}
	return known, skipped
}

// DuplicateIDs lists product IDs carried by more than one entry, sorted
func (s *Store) DuplicateIDs() []string {
	counts := make(map[string]int)
	for _, entry := range s.entries {
		if pid := entry.ProductID(); pid != "" {
			counts[pid]++
		}
	}

	var dups []string
	for pid, n := range counts {
		if n > 1 {
			dups = append(dups, pid)
		}
	}
	sort.Strings(dups)
	return dups
}

// Counts returns how many entries succeeded and how many failed
func (s *Store) Counts() (succeeded, failed int) {
	for _, entry := range s.entries {
		if entry.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Encode renders the results as an indented JSON array with non-ASCII and HTML left unescaped
func Encode(entries []models.ScrapeResult) ([]byte, error) {
	if entries == nil {
		entries = []models.ScrapeResult{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the whole store to its path, replacing the previous document atomically
func (s *Store) Save() error {
	data, err := Encode(s.entries)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	tempFile := s.path + ".tmp"
	file, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary results file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync results: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close results file: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace results document: %w", err)
	}
	return nil
}
