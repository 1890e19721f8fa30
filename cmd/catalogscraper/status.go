package main

import (
	"fmt"
	"strings"
	"time"

	"catalogscraper/pkg/checkpoint"
	"catalogscraper/pkg/results"
	"catalogscraper/pkg/storage"
	"catalogscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var statusOpts struct {
	all   bool
	prune int
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run and the state of the results document",
	Long: `Show the record of the most recent crawl or fill run, followed by a
summary of the results document and the image directory, including products
that were scraped without an image on disk.`,
	Example: `  # Show the last run
  catalogscraper status

  # Show every recorded run
  catalogscraper status --all

  # Keep only the 10 newest run records
  catalogscraper status --prune 10`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.all, "all", false, "list every recorded run")
	statusCmd.Flags().IntVar(&statusOpts.prune, "prune", 0, "delete all but the N newest run records")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	runs, err := newRunManager()
	if err != nil {
		return err
	}

	if statusOpts.prune > 0 {
		removed, err := runs.Prune(statusOpts.prune)
		if err != nil {
			return err
		}
		ui.PrintInfo("Pruned run records", fmt.Sprintf("%d", removed))
	}

	var records []*checkpoint.Run
	if statusOpts.all {
		records, err = runs.List()
	} else {
		var latest *checkpoint.Run
		latest, err = runs.Latest()
		if latest != nil {
			records = []*checkpoint.Run{latest}
		}
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		ui.PrintInfo("Runs", "none recorded")
	}
	for _, run := range records {
		printRun(run)
	}

	store, err := results.Load(cfg.Output.ResultsFile)
	if err != nil {
		return err
	}
	succeeded, failed := store.Counts()

	ui.PrintHighlight("Results Document")
	ui.PrintInfo("File", store.Path())
	ui.PrintInfo("Entries", fmt.Sprintf("%d (%d scraped, %d failed)", store.Len(), succeeded, failed))
	if dups := store.DuplicateIDs(); len(dups) > 0 {
		ui.PrintWarning("Duplicate product IDs", strings.Join(dups, ", "))
	}

	images, err := storage.Open(cfg.Output.ImageDir)
	if err != nil {
		return err
	}
	ui.PrintInfo("Images", fmt.Sprintf("%d in %s", images.Count(), images.Dir()))
	if missing := missingImages(store, images); len(missing) > 0 {
		ui.PrintWarning("Scraped without image", strings.Join(missing, ", "))
	}
	return nil
}

// missingImages lists product IDs of scraped entries that have no {id}.jpg
func missingImages(store *results.Store, images *storage.Manager) []string {
	var ids []string
	for _, entry := range store.Entries() {
		if entry.Succeeded() && entry.ProductID() != "" {
			ids = append(ids, entry.ProductID())
		}
	}
	return images.Missing(ids)
}

func printRun(run *checkpoint.Run) {
	ui.PrintHighlight(fmt.Sprintf("Run %s", run.ID))
	ui.PrintInfo("Mode", run.Mode)
	ui.PrintInfo("Status", run.Status)
	ui.PrintInfo("Started", run.StartedAt.Format("2006-01-02 15:04:05"))
	ui.PrintInfo("Duration", run.Duration().Round(time.Second).String())
	ui.PrintInfo("Pages", fmt.Sprintf("%d/%d (%d scraped, %d failed, %d images)",
		run.Processed, run.Total, run.Succeeded, run.Failed, run.Images))
	if run.LastURL != "" {
		ui.PrintInfo("Last page", run.LastURL)
	}
	if run.Error != "" {
		ui.PrintWarning("Error", run.Error)
	}
}
