package main

import (
	"fmt"
	"time"

	"catalogscraper/pkg/config"
	errs "catalogscraper/pkg/errors"
	"catalogscraper/pkg/logger"
	"catalogscraper/pkg/results"
	"catalogscraper/pkg/ui"
	"catalogscraper/pkg/urlsource"

	"github.com/spf13/cobra"
)

var crawlOpts struct {
	urlsFile        string
	test            bool
	idRange         string
	output          string
	imageDir        string
	headless        bool
	delay           time.Duration
	account         string
	metricsTextfile string
}

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Scrape every product page listed in the URL file",
	Long: `Log in once and visit every product page listed in the URL file, in order.

The URL file holds one URL per line. Blank lines and lines starting with //
are ignored. In test mode only the first 5 URLs are visited.

The results document is overwritten with one entry per visited page. Images
are saved as {product_id}.jpg in the image directory. Interrupting the run
with Ctrl+C still saves the pages visited so far.`,
	Example: `  # Crawl the default urls.txt into products.json
  catalogscraper crawl

  # Try the first few pages only, with a visible browser
  catalogscraper crawl --test --headless=false

  # Crawl an ID range instead of a URL file
  catalogscraper crawl --range 582-600 --output sample.json`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&crawlOpts.urlsFile, "urls", "u", "", "URL file (default urls.txt)")
	crawlCmd.Flags().BoolVarP(&crawlOpts.test, "test", "t", false, "visit only the first URLs of the file")
	crawlCmd.Flags().StringVarP(&crawlOpts.idRange, "range", "r", "", "crawl product IDs START-END instead of the URL file")
	crawlCmd.Flags().StringVarP(&crawlOpts.output, "output", "o", "", "results document (default products.json)")
	crawlCmd.Flags().StringVar(&crawlOpts.imageDir, "image-dir", "", "directory for product images (default images)")
	crawlCmd.Flags().BoolVar(&crawlOpts.headless, "headless", true, "run the browser without a window")
	crawlCmd.Flags().DurationVarP(&crawlOpts.delay, "delay", "d", 0, "pause after each page (default 2s)")
	crawlCmd.Flags().StringVarP(&crawlOpts.account, "account", "a", "", "stored account to log in with")
	crawlCmd.Flags().StringVar(&crawlOpts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")
}

// crawlFlags collects the flags the user actually set
func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if crawlOpts.urlsFile != "" {
		flags["urls-file"] = crawlOpts.urlsFile
	}
	if cmd.Flags().Changed("test") {
		flags["test"] = crawlOpts.test
	}
	if crawlOpts.output != "" {
		flags["output"] = crawlOpts.output
	}
	if crawlOpts.imageDir != "" {
		flags["image-dir"] = crawlOpts.imageDir
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = crawlOpts.headless
	}
	if cmd.Flags().Changed("delay") {
		flags["delay"] = crawlOpts.delay
	}
	if crawlOpts.metricsTextfile != "" {
		flags["metrics-textfile"] = crawlOpts.metricsTextfile
	}
	return flags
}

// crawlTargets builds the list of pages to visit
func crawlTargets(cfg *config.Config, idRange string) ([]string, error) {
	var urls []string
	if idRange != "" {
		start, end, err := urlsource.ParseRange(idRange)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeConfig, err, "invalid --range")
		}
		urls = urlsource.RangeURLs(cfg, start, end)
	} else {
		var err error
		urls, err = urlsource.ReadFile(cfg.Input.URLsFile)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Input.TestMode {
		urls = urlsource.Truncate(urls, cfg.Input.TestLimit)
	}
	return urls, nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(crawlFlags(cmd))
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	urls, err := crawlTargets(cfg, crawlOpts.idRange)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		log.WithField("urls_file", cfg.Input.URLsFile).Warn("No URLs to process")
		ui.PrintWarning("No URLs to process")
		return nil
	}

	ui.PrintInfo("Pages", fmt.Sprintf("%d", len(urls)))
	if cfg.Input.TestMode {
		ui.PrintInfo("Mode", "test")
	}

	ctx, stop := signalContext()
	defer stop()

	s := &session{
		cfg:      cfg,
		mode:     modeCrawl,
		account:  crawlOpts.account,
		notifier: ui.NewNotifier(notify),
		store:    results.New(cfg.Output.ResultsFile),
	}
	if err := s.run(ctx, urls); err != nil {
		return err
	}

	ui.PrintSuccess("[CRAWL COMPLETED]")
	return nil
}
