package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Fill.Start != 582 || config.Fill.End != 1298 {
		t.Errorf("Expected default fill range 582-1298, got %d-%d", config.Fill.Start, config.Fill.End)
	}

	if config.Output.ResultsFile != "products.json" {
		t.Errorf("Expected default results file to be products.json, got %s", config.Output.ResultsFile)
	}

	if config.Input.TestLimit != 5 {
		t.Errorf("Expected default test limit to be 5, got %d", config.Input.TestLimit)
	}

	if config.Pacing.RequestDelay != 2*time.Second {
		t.Errorf("Expected default request delay to be 2s, got %v", config.Pacing.RequestDelay)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestProductURL(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "https://the-blueprisms.com/product-details/584", config.ProductURL(584))

	config.Site.ProductURLTemplate = "http://localhost:8080/p/{id}?ref={id}"
	assert.Equal(t, "http://localhost:8080/p/7?ref=7", config.ProductURL(7))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CATALOG_USERNAME", "operator@example.com")
	t.Setenv("CATALOG_PASSWORD", "from-env")
	t.Setenv("CATALOG_FILL_START", "10")
	t.Setenv("CATALOG_FILL_END", "20")
	t.Setenv("CATALOG_REQUEST_DELAY", "500ms")
	t.Setenv("CATALOG_HEADLESS", "false")
	t.Setenv("CATALOG_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "operator@example.com", config.Credentials.Username)
	assert.Equal(t, "from-env", config.Credentials.Password)
	assert.Equal(t, 10, config.Fill.Start)
	assert.Equal(t, 20, config.Fill.End)
	assert.Equal(t, 500*time.Millisecond, config.Pacing.RequestDelay)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("CATALOG_FILL_START", "abc")
	t.Setenv("CATALOG_REQUEST_DELAY", "soon")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_FILL_START")
	assert.Contains(t, err.Error(), "CATALOG_REQUEST_DELAY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "template without placeholder",
			mutate:    func(c *Config) { c.Site.ProductURLTemplate = "https://example.com/p/" },
			wantError: "must contain {id}",
		},
		{
			name:      "missing selector",
			mutate:    func(c *Config) { delete(c.Site.Selectors, SelectorPrice) },
			wantError: `selector "price" is required`,
		},
		{
			name:      "inverted range",
			mutate:    func(c *Config) { c.Fill.Start, c.Fill.End = 10, 5 },
			wantError: "fill: range 10-5 is empty",
		},
		{
			name:      "unbounded range",
			mutate:    func(c *Config) { c.Fill.Start, c.Fill.End = 0, math.MaxInt },
			wantError: "spans more than",
		},
		{
			name:      "negative delay",
			mutate:    func(c *Config) { c.Pacing.SettleDelay = -time.Second },
			wantError: "cannot be negative",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: "invalid log level",
		},
		{
			name:      "bad login url",
			mutate:    func(c *Config) { c.Site.LoginURL = "not a url" },
			wantError: "invalid login URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestLoadFromFileMergesSelectors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
site:
  selectors:
    price: //span[@class="price"]
fill:
  start: 1
  end: 1489
output:
  results_file: all.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, `//span[@class="price"]`, config.Site.Selectors[SelectorPrice])
	assert.Equal(t, DefaultSelectors()[SelectorName], config.Site.Selectors[SelectorName])
	assert.Equal(t, 1489, config.Fill.End)
	assert.Equal(t, "all.json", config.Output.ResultsFile)
	assert.Equal(t, "images", config.Output.ImageDir)
}

func TestSaveOmitsPassword(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	config := DefaultConfig()
	config.Credentials.Username = "operator"
	config.Credentials.Password = "hunter2"
	require.NoError(t, config.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hunter2"))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "operator", reloaded.Credentials.Username)
	assert.Empty(t, reloaded.Credentials.Password)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"urls-file": "list.txt",
		"test":      true,
		"start":     582,
		"end":       585,
		"delay":     time.Second,
		"headless":  false,
	})

	assert.Equal(t, "list.txt", config.Input.URLsFile)
	assert.True(t, config.Input.TestMode)
	assert.Equal(t, 585, config.Fill.End)
	assert.Equal(t, time.Second, config.Pacing.RequestDelay)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "products.json", config.Output.ResultsFile)
}
