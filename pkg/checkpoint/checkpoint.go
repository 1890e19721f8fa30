package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"catalogscraper/pkg/logger"
)

const (
	appName       = "catalogscraper"
	recordVersion = 1
	recordSuffix  = ".run.json"
)

// Status of a run
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusInterrupted = "interrupted"
	StatusFailed      = "failed"
)

// Run represents the state of one crawl or fill run
type Run struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	ResultsFile string    `json:"results_file"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Images      int       `json:"images"`
	LastURL     string    `json:"last_url,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	Version     int       `json:"version"`
}

// Duration returns how long the run took, or has been running
func (r *Run) Duration() time.Duration {
	end := r.FinishedAt
	if end.IsZero() {
		end = r.UpdatedAt
	}
	return end.Sub(r.StartedAt)
}

// Manager handles run record operations
type Manager struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
}

// NewManager creates a manager storing records in the user's data directory
func NewManager() (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dataDir, "runs"))
}

// NewManagerAt creates a manager storing records in dir
func NewManagerAt(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}

	return &Manager{
		dir:    dir,
		logger: logger.GetLogger(),
		now:    time.Now,
	}, nil
}

// Dir returns the directory holding the records
func (m *Manager) Dir() string {
	return m.dir
}

// Start creates and saves the record of a new run
func (m *Manager) Start(mode, resultsFile string, total int) (*Run, error) {
	now := m.now()
	run := &Run{
		ID:          now.UTC().Format("20060102T150405.000000000Z"),
		Mode:        mode,
		ResultsFile: resultsFile,
		Total:       total,
		Status:      StatusRunning,
		StartedAt:   now,
		Version:     recordVersion,
	}

	if err := m.Save(run); err != nil {
		return nil, fmt.Errorf("failed to save initial run record: %w", err)
	}

	m.logger.DebugWithFields("Run record created", map[string]interface{}{
		"run_id": run.ID,
		"mode":   mode,
		"total":  total,
	})

	return run, nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+recordSuffix)
}

// Load loads a run record. It returns nil if the record does not exist.
func (m *Manager) Load(id string) (*Run, error) {
	file, err := os.Open(m.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open run record: %w", err)
	}
	defer file.Close()

	var run Run
	if err := json.NewDecoder(file).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode run record: %w", err)
	}
	return &run, nil
}

// Save saves the run record to disk atomically
func (m *Manager) Save(run *Run) error {
	run.UpdatedAt = m.now()

	tempPath := m.path(run.ID) + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary run record: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode run record: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync run record: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close run record: %w", err)
	}

	if err := os.Rename(tempPath, m.path(run.ID)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace run record: %w", err)
	}
	return nil
}

// RecordPage counts one visited page and saves the record
func (m *Manager) RecordPage(run *Run, url string, succeeded, imageSaved bool) error {
	run.Processed++
	if succeeded {
		run.Succeeded++
	} else {
		run.Failed++
	}
	if imageSaved {
		run.Images++
	}
	run.LastURL = url
	return m.Save(run)
}

// Finish sets the final status of the run and saves the record
func (m *Manager) Finish(run *Run, status string, runErr error) error {
	run.Status = status
	if runErr != nil {
		run.Error = runErr.Error()
	}
	run.FinishedAt = m.now()

	m.logger.InfoWithFields("Run finished", map[string]interface{}{
		"run_id":    run.ID,
		"status":    status,
		"processed": run.Processed,
		"succeeded": run.Succeeded,
		"failed":    run.Failed,
	})
	return m.Save(run)
}

// List returns all run records, newest first
func (m *Manager) List() ([]*Run, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var runs []*Run
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		run, err := m.Load(strings.TrimSuffix(name, recordSuffix))
		if err != nil {
			m.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable run record")
			continue
		}
		if run != nil {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// Latest returns the most recent run, or nil if there is none
func (m *Manager) Latest() (*Run, error) {
	runs, err := m.List()
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// Prune deletes all but the newest keep records
func (m *Manager) Prune(keep int) (int, error) {
	runs, err := m.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := keep; i < len(runs); i++ {
		if err := os.Remove(m.path(runs[i].ID)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to delete run record: %w", err)
		}
		removed++
	}
	return removed, nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		// Use XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, appName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", appName)
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, appName)
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
