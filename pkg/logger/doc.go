// Package logger provides structured logging for the catalog scraper.
//
// It wraps zerolog behind the Logger interface. Console output is colored and
// goes to stderr; a log file receives JSON lines when configured.
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.WithField("url", url).Info("Visiting product")
//
// TestLogger records messages in memory for assertions in tests.
package logger
