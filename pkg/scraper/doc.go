// Package scraper drives one authenticated browser session over a list of
// product pages.
//
// The Scraper logs in once, then visits every target URL in order. Each
// visit runs a fixed table of field extractors (image, name, price,
// description); a failing extractor leaves its field null and never aborts
// the record. A visit that cannot load the page at all produces a result with
// data null and an error message.
//
// Usage:
//
//	page, err := browser.NewChrome(opts, log)
//	if err != nil {
//	    return err
//	}
//	defer page.Close()
//
//	images, err := storage.NewManager(cfg.Output.ImageDir)
//	if err != nil {
//	    return err
//	}
//
//	s := scraper.New(page, images, cfg, scraper.WithMetrics(scraper.NewMetrics()))
//	results, err := s.Crawl(ctx, account, urls)
//
// Crawl returns the results gathered so far together with the error when
// login fails or ctx is cancelled, so the caller can still persist them.
//
// Pacing:
//
// The delays are static: one after login, a settle delay after each
// navigation, and a fixed delay between visits. None of them is a retry.
package scraper
