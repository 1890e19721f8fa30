package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LogProductScraped logs the outcome of one product visit
func LogProductScraped(l Logger, url, productID string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"url":        url,
		"product_id": productID,
	})
	if err != nil {
		entry.WithError(err).Error("Product visit failed")
		return
	}
	entry.Info("Product scraped")
}

// LogFieldError logs a field extraction that fell back to null
func LogFieldError(l Logger, url, field string, err error) {
	l.WithError(err).WithFields(map[string]interface{}{
		"url":   url,
		"field": field,
	}).Warn("Field extraction failed")
}

// LogImageSaved logs a stored product image
func LogImageSaved(l Logger, productID, path string, size int) {
	l.InfoWithFields("Image saved", map[string]interface{}{
		"product_id": productID,
		"path":       path,
		"bytes":      size,
	})
}

// LogCrawlProgress logs how far the crawl has come
func LogCrawlProgress(l Logger, done, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"done":       done,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Debug("Crawl progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(config) > 0 {
		entry = entry.WithFields(config)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	nop := zerolog.Nop()
	return &zerologLogger{logger: &nop, fields: map[string]interface{}{}}
}
