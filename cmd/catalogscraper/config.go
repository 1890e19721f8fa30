package main

import (
	"fmt"
	"os"

	"catalogscraper/pkg/config"
	"catalogscraper/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Catalog Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (CATALOG_*)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file holding every option at its default.

The file will be created in the current directory as '.catalogscraper.yaml'
unless a different path is specified with the --config flag. The password
is never written to it.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The password is never shown.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it:
  - YAML syntax
  - Site URLs, URL template and selectors
  - Timeouts, delays and the fill range
  - Output paths`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const configHeader = `# Catalog Scraper configuration
#
# Every option can also be set with an environment variable prefixed with
# CATALOG_, e.g. CATALOG_LOGIN_URL or CATALOG_RESULTS_FILE.
# The site password is never read from this file: use
# 'catalogscraper auth login' or CATALOG_PASSWORD.

`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".catalogscraper.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, append([]byte(configHeader), data...), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set the login URL, product URL template and selectors for your site")
	fmt.Println("2. Store your password with 'catalogscraper auth login'")
	fmt.Println("3. Run 'catalogscraper config validate' to check the configuration")
	fmt.Println("4. Start with 'catalogscraper crawl --test'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	if cfg.Credentials.Password != "" {
		fmt.Println("\ncredentials.password: ******** (from environment)")
	}

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (CATALOG_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if _, err := os.Stat(cfg.Input.URLsFile); err != nil {
		warnings = append(warnings, fmt.Sprintf("URL file %s is not readable; only 'fill' and 'crawl --range' will work", cfg.Input.URLsFile))
	}
	if cfg.Credentials.Username == "" {
		warnings = append(warnings, "No username configured; a stored account will be used")
	}
	if !cfg.Browser.Headless {
		warnings = append(warnings, "Browser runs with a window")
	}

	for _, w := range warnings {
		ui.PrintWarning(w)
	}
	ui.PrintSuccess("Configuration is valid")
}
