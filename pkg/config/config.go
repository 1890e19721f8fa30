package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"catalogscraper/pkg/urlsource"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// IDPlaceholder is substituted with the numeric product ID in ProductURLTemplate
const IDPlaceholder = "{id}"

// Selector keys used by the login form and the product page
const (
	SelectorUsername    = "username"
	SelectorPassword    = "password"
	SelectorSubmit      = "submit"
	SelectorImage       = "image"
	SelectorName        = "name"
	SelectorPrice       = "price"
	SelectorDescription = "description"
)

// Config holds all configuration options for the catalog scraper
type Config struct {
	// Target site contract
	Site SiteConfig `yaml:"site" json:"site"`

	// Login credentials, only ever supplied through the environment or the credential store
	Credentials CredentialsConfig `yaml:"credentials,omitempty" json:"credentials,omitempty"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Fixed politeness delays
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// URL file for full crawls
	Input InputConfig `yaml:"input" json:"input"`

	// ID range for incremental fill
	Fill FillConfig `yaml:"fill" json:"fill"`

	// Results document and image directory
	Output OutputConfig `yaml:"output" json:"output"`

	// Prometheus textfile export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes the target site. Selectors are XPath expressions keyed by field name.
type SiteConfig struct {
	LoginURL           string            `yaml:"login_url" json:"login_url"`
	ProductURLTemplate string            `yaml:"product_url_template" json:"product_url_template"`
	Selectors          map[string]string `yaml:"selectors" json:"selectors"`
}

// CredentialsConfig holds site login credentials
type CredentialsConfig struct {
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"-" json:"-"`
}

// BrowserConfig holds browser automation settings
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	QueryTimeout      time.Duration `yaml:"query_timeout" json:"query_timeout"`
}

// PacingConfig holds the static delays between browser operations
type PacingConfig struct {
	PostLoginDelay time.Duration `yaml:"post_login_delay" json:"post_login_delay"`
	SettleDelay    time.Duration `yaml:"settle_delay" json:"settle_delay"`
	RequestDelay   time.Duration `yaml:"request_delay" json:"request_delay"`
}

// InputConfig holds full-crawl input settings
type InputConfig struct {
	URLsFile  string `yaml:"urls_file" json:"urls_file"`
	TestMode  bool   `yaml:"test_mode" json:"test_mode"`
	TestLimit int    `yaml:"test_limit" json:"test_limit"`
}

// FillConfig holds the inclusive ID range scanned by incremental fill
type FillConfig struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// OutputConfig holds output locations
type OutputConfig struct {
	ResultsFile string `yaml:"results_file" json:"results_file"`
	ImageDir    string `yaml:"image_dir" json:"image_dir"`
}

// MetricsConfig controls the per-run metrics dump
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultSelectors returns the structural paths of the catalog site's login and product pages
func DefaultSelectors() map[string]string {
	const form = "/html/body/div/div/div/div[2]/div/div/div[2]/div/form/div[2]"
	const detail = "/html/body/div/div/div/div[2]/div/div[2]"
	return map[string]string{
		SelectorUsername:    form + "/div[1]/input",
		SelectorPassword:    form + "/div[2]/div[1]/input",
		SelectorSubmit:      form + "/div[3]/button",
		SelectorImage:       detail + "/div[1]/div/img",
		SelectorName:        detail + "/div[2]/div[1]",
		SelectorPrice:       detail + "/div[2]/div[2]",
		SelectorDescription: detail + "/div[2]/div[3]/div[2]/p",
	}
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			LoginURL:           "https://the-blueprisms.com/login",
			ProductURLTemplate: "https://the-blueprisms.com/product-details/" + IDPlaceholder,
			Selectors:          DefaultSelectors(),
		},
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			NavigationTimeout: 60 * time.Second,
			QueryTimeout:      5 * time.Second,
		},
		Pacing: PacingConfig{
			PostLoginDelay: 2 * time.Second,
			SettleDelay:    2 * time.Second,
			RequestDelay:   2 * time.Second,
		},
		Input: InputConfig{
			URLsFile:  "urls.txt",
			TestLimit: 5,
		},
		Fill: FillConfig{
			Start: 582,
			End:   1298,
		},
		Output: OutputConfig{
			ResultsFile: "products.json",
			ImageDir:    "images",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Credentials
	if username := os.Getenv("CATALOG_USERNAME"); username != "" {
		c.Credentials.Username = username
	}
	if password := os.Getenv("CATALOG_PASSWORD"); password != "" {
		c.Credentials.Password = password
	}

	// Site
	if loginURL := os.Getenv("CATALOG_LOGIN_URL"); loginURL != "" {
		c.Site.LoginURL = loginURL
	}
	if tmpl := os.Getenv("CATALOG_PRODUCT_URL_TEMPLATE"); tmpl != "" {
		c.Site.ProductURLTemplate = tmpl
	}

	// Browser
	if headless := os.Getenv("CATALOG_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if userAgent := os.Getenv("CATALOG_USER_AGENT"); userAgent != "" {
		c.Browser.UserAgent = userAgent
	}
	if execPath := os.Getenv("CATALOG_CHROME_PATH"); execPath != "" {
		c.Browser.ExecPath = execPath
	}

	// Pacing
	if delay := os.Getenv("CATALOG_REQUEST_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			errs = append(errs, fmt.Errorf("CATALOG_REQUEST_DELAY: %w", err))
		} else {
			c.Pacing.RequestDelay = d
		}
	}

	// Input and output
	if urlsFile := os.Getenv("CATALOG_URLS_FILE"); urlsFile != "" {
		c.Input.URLsFile = urlsFile
	}
	if resultsFile := os.Getenv("CATALOG_RESULTS_FILE"); resultsFile != "" {
		c.Output.ResultsFile = resultsFile
	}
	if imageDir := os.Getenv("CATALOG_IMAGE_DIR"); imageDir != "" {
		c.Output.ImageDir = imageDir
	}

	// Fill range
	for name, target := range map[string]*int{
		"CATALOG_FILL_START": &c.Fill.Start,
		"CATALOG_FILL_END":   &c.Fill.End,
	} {
		if raw := os.Getenv(name); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			*target = val
		}
	}

	if textfile := os.Getenv("CATALOG_METRICS_TEXTFILE"); textfile != "" {
		c.Metrics.Textfile = textfile
	}

	// Logging level
	if logLevel := os.Getenv("CATALOG_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Selectors given in the file override defaults key by key
	defaults := c.Site.Selectors
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	for key, value := range defaults {
		if _, ok := c.Site.Selectors[key]; !ok {
			if c.Site.Selectors == nil {
				c.Site.Selectors = make(map[string]string)
			}
			c.Site.Selectors[key] = value
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".catalogscraper.yaml",
		".catalogscraper.yml",
		filepath.Join(home, ".config", "catalogscraper", "config.yaml"),
		filepath.Join(home, ".config", "catalogscraper", "config.yml"),
		filepath.Join(home, ".catalogscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// ProductURL renders the product URL template for id
func (c *Config) ProductURL(id int) string {
	return strings.ReplaceAll(c.Site.ProductURLTemplate, IDPlaceholder, strconv.Itoa(id))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Site contract
	if _, err := url.ParseRequestURI(c.Site.LoginURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid login URL %q", c.Site.LoginURL))
	}
	if !strings.Contains(c.Site.ProductURLTemplate, IDPlaceholder) {
		errs = append(errs, fmt.Errorf("product URL template must contain %s", IDPlaceholder))
	}
	for _, key := range []string{
		SelectorUsername, SelectorPassword, SelectorSubmit,
		SelectorImage, SelectorName, SelectorPrice, SelectorDescription,
	} {
		if strings.TrimSpace(c.Site.Selectors[key]) == "" {
			errs = append(errs, fmt.Errorf("selector %q is required", key))
		}
	}

	// Browser
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query timeout must be positive"))
	}

	// Pacing
	if c.Pacing.PostLoginDelay < 0 || c.Pacing.SettleDelay < 0 || c.Pacing.RequestDelay < 0 {
		errs = append(errs, errors.New("pacing delays cannot be negative"))
	}

	// Input
	if c.Input.TestLimit <= 0 {
		errs = append(errs, errors.New("test limit must be positive"))
	}

	// Fill range
	if err := urlsource.CheckRange(c.Fill.Start, c.Fill.End); err != nil {
		errs = append(errs, fmt.Errorf("fill: %w", err))
	}

	// Output
	if c.Output.ResultsFile == "" {
		errs = append(errs, errors.New("results file is required"))
	}
	if c.Output.ImageDir == "" {
		errs = append(errs, errors.New("image directory is required"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file. The password is never written.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["urls-file"].(string); ok && v != "" {
		c.Input.URLsFile = v
	}
	if v, ok := flags["test"].(bool); ok {
		c.Input.TestMode = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.ResultsFile = v
	}
	if v, ok := flags["image-dir"].(string); ok && v != "" {
		c.Output.ImageDir = v
	}
	if v, ok := flags["start"].(int); ok {
		c.Fill.Start = v
	}
	if v, ok := flags["end"].(int); ok {
		c.Fill.End = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Pacing.RequestDelay = v
	}
	if v, ok := flags["metrics-textfile"].(string); ok && v != "" {
		c.Metrics.Textfile = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".catalogscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
