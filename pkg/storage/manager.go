package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	errs "catalogscraper/pkg/errors"
)

// ImageExt is the fixed extension of stored product images, whatever the source format
const ImageExt = ".jpg"

// Manager stores product images as {product_id}.jpg inside one directory
type Manager struct {
	imageDir string
	stored   map[string]bool
	mu       sync.RWMutex
}

// NewManager creates the image directory if needed and indexes images already present
func NewManager(imageDir string) (*Manager, error) {
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return Open(imageDir)
}

// Open indexes the images in imageDir without creating it.
// A missing directory gives an empty manager.
func Open(imageDir string) (*Manager, error) {
	manager := &Manager{
		imageDir: imageDir,
		stored:   make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing images: %w", err)
	}

	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.imageDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ImageExt {
			m.stored[strings.TrimSuffix(entry.Name(), ImageExt)] = true
		}
	}
	return nil
}

// validID rejects IDs that would escape the image directory
func validID(productID string) bool {
	return productID != "" && productID != "." && productID != ".." &&
		!strings.ContainsAny(productID, `/\`)
}

// PathFor returns the slash-separated path an image for productID is stored under
func (m *Manager) PathFor(productID string) string {
	return filepath.ToSlash(filepath.Join(m.imageDir, productID+ImageExt))
}

// Has reports whether an image for productID is on disk
func (m *Manager) Has(productID string) bool {
	m.mu.RLock()
	known := m.stored[productID]
	m.mu.RUnlock()
	if known {
		return true
	}

	if !validID(productID) {
		return false
	}
	if _, err := os.Stat(filepath.Join(m.imageDir, productID+ImageExt)); err == nil {
		m.mu.Lock()
		m.stored[productID] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// SaveImage writes r to {productID}.jpg, replacing any previous image atomically.
// It returns the stored path and the number of bytes written.
func (m *Manager) SaveImage(r io.Reader, productID string) (string, int64, error) {
	if !validID(productID) {
		return "", 0, errs.New(errs.ErrorTypeStorage, fmt.Sprintf("invalid product id %q for image name", productID))
	}

	filename := filepath.Join(m.imageDir, productID+ImageExt)
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", 0, errs.Wrap(errs.ErrorTypeStorage, err, "create temporary image file")
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeStorage, err, "write image data")
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeStorage, closeErr, "close image file")
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeStorage, err, "rename image file")
	}

	m.mu.Lock()
	m.stored[productID] = true
	m.mu.Unlock()

	return m.PathFor(productID), written, nil
}

// Dir returns the image directory
func (m *Manager) Dir() string {
	return m.imageDir
}

// Count returns the number of images known to be stored
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stored)
}

// Missing returns the IDs among productIDs that have no stored image, sorted and deduplicated
func (m *Manager) Missing(productIDs []string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, id := range productIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !m.Has(id) {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
