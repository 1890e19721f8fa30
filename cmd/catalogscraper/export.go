package main

import (
	"context"
	"fmt"

	"catalogscraper/pkg/export"
	"catalogscraper/pkg/logger"
	"catalogscraper/pkg/results"
	"catalogscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var exportOpts struct {
	input string
	db    string
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy the results document into a SQLite database",
	Long: `Copy every entry of the results document into the products table of a
SQLite database. Rows are keyed by URL, so exporting again updates them.`,
	Example: `  # Export products.json into products.db
  catalogscraper export

  # Export another document
  catalogscraper export --input sample.json --db sample.db`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOpts.input, "input", "i", "", "results document (default products.json)")
	exportCmd.Flags().StringVar(&exportOpts.db, "db", "products.db", "SQLite database file")
}

func runExport(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if exportOpts.input != "" {
		flags["output"] = exportOpts.input
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	store, err := results.Load(cfg.Output.ResultsFile)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		ui.PrintWarning("Results document is empty", cfg.Output.ResultsFile)
		return nil
	}

	summary, err := export.ToFile(context.Background(), exportOpts.db, store.Entries())
	if err != nil {
		return err
	}

	logger.GetLogger().InfoWithFields("Results exported", map[string]interface{}{
		"db":        exportOpts.db,
		"rows":      summary.Rows,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})
	ui.PrintSuccess(fmt.Sprintf("Exported %d entries to %s (%d scraped, %d failed)",
		summary.Rows, exportOpts.db, summary.Succeeded, summary.Failed))
	return nil
}
