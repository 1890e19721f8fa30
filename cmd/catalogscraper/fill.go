package main

import (
	"fmt"
	"strings"
	"time"

	"catalogscraper/pkg/logger"
	"catalogscraper/pkg/results"
	"catalogscraper/pkg/ui"
	"catalogscraper/pkg/urlsource"

	"github.com/spf13/cobra"
)

var fillOpts struct {
	start           int
	end             int
	output          string
	imageDir        string
	headless        bool
	delay           time.Duration
	account         string
	metricsTextfile string
}

// fillCmd represents the fill command
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Scrape the product IDs missing from the results document",
	Long: `Read the existing results document, find the product IDs of the range
that it does not cover yet and scrape only those, appending the new
entries to the document.

Entries whose product_id is not a number are kept but do not count as
covering an ID. Duplicate IDs already in the document are reported.`,
	Example: `  # Fill the default range 582-1298 in products.json
  catalogscraper fill

  # Fill a custom range
  catalogscraper fill --start 1000 --end 1100`,
	RunE: runFill,
}

func init() {
	rootCmd.AddCommand(fillCmd)

	fillCmd.Flags().IntVar(&fillOpts.start, "start", 0, "first product ID of the range (default 582)")
	fillCmd.Flags().IntVar(&fillOpts.end, "end", 0, "last product ID of the range (default 1298)")
	fillCmd.Flags().StringVarP(&fillOpts.output, "output", "o", "", "results document to fill (default products.json)")
	fillCmd.Flags().StringVar(&fillOpts.imageDir, "image-dir", "", "directory for product images (default images)")
	fillCmd.Flags().BoolVar(&fillOpts.headless, "headless", true, "run the browser without a window")
	fillCmd.Flags().DurationVarP(&fillOpts.delay, "delay", "d", 0, "pause after each page (default 2s)")
	fillCmd.Flags().StringVarP(&fillOpts.account, "account", "a", "", "stored account to log in with")
	fillCmd.Flags().StringVar(&fillOpts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")
}

func fillFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("start") {
		flags["start"] = fillOpts.start
	}
	if cmd.Flags().Changed("end") {
		flags["end"] = fillOpts.end
	}
	if fillOpts.output != "" {
		flags["output"] = fillOpts.output
	}
	if fillOpts.imageDir != "" {
		flags["image-dir"] = fillOpts.imageDir
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = fillOpts.headless
	}
	if cmd.Flags().Changed("delay") {
		flags["delay"] = fillOpts.delay
	}
	if fillOpts.metricsTextfile != "" {
		flags["metrics-textfile"] = fillOpts.metricsTextfile
	}
	return flags
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(fillFlags(cmd))
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	store, err := results.Load(cfg.Output.ResultsFile)
	if err != nil {
		return err
	}

	known, skipped := store.KnownIDs()
	for _, id := range skipped {
		log.WithField("product_id", id).Warn("Skipping non-numeric product_id")
	}
	if dups := store.DuplicateIDs(); len(dups) > 0 {
		log.WithField("product_ids", dups).Warn("Results document has duplicate product IDs")
		ui.PrintWarning("Duplicate product IDs", strings.Join(dups, ", "))
	}

	urls := urlsource.MissingURLs(cfg, cfg.Fill.Start, cfg.Fill.End, known)
	log.InfoWithFields("Fill plan", map[string]interface{}{
		"existing": store.Len(),
		"start":    cfg.Fill.Start,
		"end":      cfg.Fill.End,
		"missing":  len(urls),
	})
	ui.PrintInfo("Existing entries", fmt.Sprintf("%d", store.Len()))
	ui.PrintInfo("Missing IDs", fmt.Sprintf("%d in %d-%d", len(urls), cfg.Fill.Start, cfg.Fill.End))

	if len(urls) == 0 {
		ui.PrintSuccess("Nothing to fill")
		return nil
	}

	ctx, stop := signalContext()
	defer stop()

	s := &session{
		cfg:      cfg,
		mode:     modeFill,
		account:  fillOpts.account,
		notifier: ui.NewNotifier(notify),
		store:    store,
	}
	if err := s.run(ctx, urls); err != nil {
		return err
	}

	ui.PrintSuccess("[FILL COMPLETED]")
	return nil
}
