package scraper

import (
	"io"

	"catalogscraper/pkg/models"
)

// ImageStore persists product images keyed by product ID
type ImageStore interface {
	// Has reports whether an image for productID is already stored
	Has(productID string) bool
	SaveImage(r io.Reader, productID string) (path string, written int64, err error)
}

// ResultHook is called after every completed visit with its position in the run
type ResultHook func(index int, result models.ScrapeResult)
