package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalogscraper/pkg/auth"
	"catalogscraper/pkg/browser"
	"catalogscraper/pkg/checkpoint"
	"catalogscraper/pkg/config"
	errs "catalogscraper/pkg/errors"
	"catalogscraper/pkg/logger"
	"catalogscraper/pkg/models"
	"catalogscraper/pkg/results"
	"catalogscraper/pkg/scraper"
	"catalogscraper/pkg/storage"
	"catalogscraper/pkg/ui"
)

// Run modes recorded in run records
const (
	modeCrawl = "crawl"
	modeFill  = "fill"
)

// Replaced in tests
var (
	openPage = func(cfg *config.Config) (browser.Page, error) {
		return browser.NewChrome(browser.ChromeOptions{
			Headless:          cfg.Browser.Headless,
			UserAgent:         cfg.Browser.UserAgent,
			ExecPath:          cfg.Browser.ExecPath,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			QueryTimeout:      cfg.Browser.QueryTimeout,
		}, logger.GetLogger())
	}
	newRunManager        = checkpoint.NewManager
	newCredentialManager = auth.NewManager
)

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolveAccount picks the site account: configured credentials first, then
// the credential stores
func resolveAccount(cfg *config.Config, username string) (*auth.Account, error) {
	if cfg.Credentials.Username != "" && cfg.Credentials.Password != "" &&
		(username == "" || username == cfg.Credentials.Username) {
		return &auth.Account{
			Username: cfg.Credentials.Username,
			Password: cfg.Credentials.Password,
		}, nil
	}

	manager, err := newCredentialManager()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuth, err, "failed to initialize credential manager")
	}
	account, err := manager.Resolve(username)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuth, err, "no site credentials available")
	}
	return account, nil
}

// finalStatus maps the crawl error to the final run status
func finalStatus(err error) string {
	switch {
	case err == nil:
		return checkpoint.StatusCompleted
	case errors.Is(err, context.Canceled):
		return checkpoint.StatusInterrupted
	default:
		return checkpoint.StatusFailed
	}
}

// session is one authenticated pass over a list of product pages
type session struct {
	cfg      *config.Config
	mode     string
	account  string
	store    *results.Store
	notifier *ui.Notifier
}

// run logs in, visits urls and appends what it gathers to the store. The store
// is saved whenever something was gathered, also when the run was interrupted.
func (s *session) run(ctx context.Context, urls []string) error {
	log := logger.GetLogger().WithField("mode", s.mode)

	account, err := resolveAccount(s.cfg, s.account)
	if err != nil {
		auth.ShowQuickGuide(ui.Output())
		return err
	}

	images, err := storage.NewManager(s.cfg.Output.ImageDir)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to prepare image directory")
	}

	runs, run := s.startRecord(len(urls))

	tracker := ui.NewProgressTracker(len(urls))
	metrics := scraper.NewMetrics()

	sp := ui.StartSpinner("Launching browser")
	page, err := openPage(s.cfg)
	if err != nil {
		sp.Stop("")
		err = errs.Wrap(errs.ErrorTypeBrowser, err, "failed to launch browser")
		s.finishRecord(runs, run, err)
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.WithError(err).Warn("Failed to close browser")
		}
	}()

	scr := scraper.New(page, images, s.cfg,
		scraper.WithMetrics(metrics),
		scraper.WithResultHook(func(_ int, result models.ScrapeResult) {
			imageSaved := result.Data != nil && result.Data.ImageFile != nil
			tracker.Record(result.Succeeded(), imageSaved)
			tracker.PrintProgress(result.URL)
			if runs != nil {
				if err := runs.RecordPage(run, result.URL, result.Succeeded(), imageSaved); err != nil {
					log.WithError(err).Warn("Failed to update run record")
				}
			}
		}),
	)

	sp.Suffix(fmt.Sprintf("Logging in as %s", account.Username))
	if err := scr.Login(ctx, account); err != nil {
		sp.Stop("")
		s.finishRecord(runs, run, err)
		s.writeMetrics(metrics)
		s.notify(tracker, err)
		return err
	}
	sp.Stop("Logged in")

	gathered, crawlErr := scr.Visit(ctx, urls)
	s.store.Append(gathered...)

	if len(gathered) > 0 || crawlErr == nil {
		if err := s.store.Save(); err != nil {
			s.finishRecord(runs, run, err)
			return err
		}
		ui.PrintInfo("Results", s.store.Path())
	}

	s.writeMetrics(metrics)
	tracker.PrintSummary()
	log.WithField("count", len(gathered)).Info(fmt.Sprintf("Processed %d products", len(gathered)))
	s.finishRecord(runs, run, crawlErr)
	s.notify(tracker, crawlErr)

	if errors.Is(crawlErr, context.Canceled) {
		ui.PrintWarning("Interrupted, partial results saved", len(gathered))
	}
	return crawlErr
}

// startRecord creates the run record. Record keeping never fails a run.
func (s *session) startRecord(total int) (*checkpoint.Manager, *checkpoint.Run) {
	log := logger.GetLogger()
	runs, err := newRunManager()
	if err != nil {
		log.WithError(err).Warn("Run records unavailable")
		return nil, nil
	}
	run, err := runs.Start(s.mode, s.store.Path(), total)
	if err != nil {
		log.WithError(err).Warn("Run records unavailable")
		return nil, nil
	}
	return runs, run
}

func (s *session) finishRecord(runs *checkpoint.Manager, run *checkpoint.Run, runErr error) {
	if runs == nil {
		return
	}
	if err := runs.Finish(run, finalStatus(runErr), runErr); err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to finish run record")
	}
}

func (s *session) writeMetrics(metrics *scraper.Metrics) {
	if err := metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to write metrics textfile")
	}
}

func (s *session) notify(tracker *ui.ProgressTracker, runErr error) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RunFinished(s.mode, tracker.Succeeded, tracker.Failed, runErr); err != nil {
		logger.GetLogger().WithError(err).Debug("Desktop notification failed")
	}
}
