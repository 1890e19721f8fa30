package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalogscraper/pkg/auth"
	"catalogscraper/pkg/browser"
	"catalogscraper/pkg/config"
	errs "catalogscraper/pkg/errors"
	"catalogscraper/pkg/logger"
	"catalogscraper/pkg/models"
	"catalogscraper/pkg/ratelimit"
)

// Page outcomes used as metric labels
const (
	outcomeScraped = "scraped"
	outcomeFailed  = "failed"
)

// Scraper drives one browser session over the catalog
type Scraper struct {
	page     browser.Page
	images   ImageStore
	config   *config.Config
	logger   logger.Logger
	pacer    ratelimit.Limiter
	metrics  *Metrics
	onResult ResultHook
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Scraper
type Option func(*Scraper)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithMetrics records run metrics into m
func WithMetrics(m *Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// WithPacer replaces the inter-request limiter built from the config
func WithPacer(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.pacer = l }
}

// WithResultHook registers a callback run after every visit
func WithResultHook(h ResultHook) Option {
	return func(s *Scraper) { s.onResult = h }
}

// New creates a Scraper over page, saving images to images
func New(page browser.Page, images ImageStore, cfg *config.Config, opts ...Option) *Scraper {
	s := &Scraper{
		page:   page,
		images: images,
		config: cfg,
		logger: logger.GetLogger(),
		pacer:  ratelimit.New(cfg.Pacing.RequestDelay),
		sleep:  ratelimit.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scraper) selector(key string) string {
	return s.config.Site.Selectors[key]
}

// Login authenticates the session. Any failure is an auth error and fatal to the run.
func (s *Scraper) Login(ctx context.Context, account *auth.Account) error {
	err := s.login(ctx, account)
	if err != nil {
		s.metrics.IncLogin(outcomeFailed)
		return err
	}
	s.metrics.IncLogin("ok")
	return nil
}

func (s *Scraper) login(ctx context.Context, account *auth.Account) error {
	if account == nil || account.Username == "" || account.Password == "" {
		return errs.New(errs.ErrorTypeAuth, "no site credentials configured")
	}

	loginURL := s.config.Site.LoginURL
	log := s.logger.WithFields(map[string]interface{}{
		"login_url": loginURL,
		"username":  account.Username,
	})
	log.Info("Logging in")

	if err := s.page.Navigate(ctx, loginURL); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to open login page")
	}

	for _, key := range []string{config.SelectorUsername, config.SelectorPassword, config.SelectorSubmit} {
		ok, err := s.page.Exists(ctx, s.selector(key))
		if err != nil {
			return errs.Wrap(errs.ErrorTypeAuth, err, "failed to look up login "+key+" field")
		}
		if !ok {
			return errs.New(errs.ErrorTypeAuth, fmt.Sprintf("login %s field not found on %s", key, loginURL))
		}
	}

	if err := s.page.Fill(ctx, s.selector(config.SelectorUsername), account.Username); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to fill username")
	}
	if err := s.page.Fill(ctx, s.selector(config.SelectorPassword), account.Password); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to fill password")
	}
	if err := s.page.Click(ctx, s.selector(config.SelectorSubmit)); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to submit login form")
	}
	if err := s.page.WaitIdle(ctx); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "login did not settle")
	}

	// a login form that is still there means the credentials were rejected
	stillThere, err := s.page.Exists(ctx, s.selector(config.SelectorUsername))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "failed to verify login")
	}
	if stillThere {
		return errs.New(errs.ErrorTypeAuth, "login rejected: still on the login form")
	}

	if err := s.sleep(ctx, s.config.Pacing.PostLoginDelay); err != nil {
		return err
	}

	log.Info("Logged in")
	return nil
}

// ScrapeProduct visits url and extracts one record. Field failures leave the
// field null; a failed navigation gives a result with data null and an error.
func (s *Scraper) ScrapeProduct(ctx context.Context, url string) models.ScrapeResult {
	start := time.Now()
	productID := models.ProductIDFromURL(url)

	if err := s.page.Navigate(ctx, url); err != nil {
		s.metrics.IncPage(outcomeFailed)
		s.metrics.ObservePage(time.Since(start))
		logger.LogProductScraped(s.logger, url, productID, err)
		return models.ScrapeResult{URL: url, Error: err.Error()}
	}
	if err := s.sleep(ctx, s.config.Pacing.SettleDelay); err != nil {
		return models.ScrapeResult{URL: url, Error: err.Error()}
	}

	record := &models.ProductRecord{ProductID: models.String(productID)}
	for _, field := range productFields {
		err := field.extract(ctx, s, url, record)
		if err == nil {
			continue
		}
		if errors.Is(err, browser.ErrElementNotFound) {
			s.logger.DebugWithFields("Field not present", map[string]interface{}{
				"url":   url,
				"field": field.name,
			})
			continue
		}
		s.metrics.IncFieldError(field.name)
		logger.LogFieldError(s.logger, url, field.name, err)
	}

	s.metrics.IncPage(outcomeScraped)
	s.metrics.ObservePage(time.Since(start))
	logger.LogProductScraped(s.logger, url, productID, nil)
	return models.ScrapeResult{URL: url, Data: record}
}

// Crawl logs in once and visits urls in order. It returns the results gathered
// so far, together with the error, when login fails or ctx is cancelled.
func (s *Scraper) Crawl(ctx context.Context, account *auth.Account, urls []string) ([]models.ScrapeResult, error) {
	if err := s.Login(ctx, account); err != nil {
		logger.LogComponentStop(s.logger, "scraper", "login failed")
		return []models.ScrapeResult{}, err
	}
	return s.Visit(ctx, urls)
}

// Visit scrapes urls in order over an already authenticated session.
// A visit interrupted by cancellation is not included in the results.
func (s *Scraper) Visit(ctx context.Context, urls []string) ([]models.ScrapeResult, error) {
	results := make([]models.ScrapeResult, 0, len(urls))

	logger.LogComponentStart(s.logger, "scraper", map[string]interface{}{
		"targets": len(urls),
	})

	for i, url := range urls {
		if err := s.pacer.Wait(ctx); err != nil {
			logger.LogComponentStop(s.logger, "scraper", "cancelled")
			return results, err
		}

		result := s.ScrapeProduct(ctx, url)
		s.pacer.Done()

		if err := ctx.Err(); err != nil {
			logger.LogComponentStop(s.logger, "scraper", "cancelled")
			return results, err
		}

		results = append(results, result)
		logger.LogCrawlProgress(s.logger, i+1, len(urls))
		if s.onResult != nil {
			s.onResult(i, result)
		}
	}

	logger.LogComponentStop(s.logger, "scraper", "completed")
	return results, nil
}
