// Package models defines the records produced by a scrape run.
package models

import "strings"

// ProductRecord holds the fields extracted from one product detail page.
// A nil field means the value could not be extracted.
type ProductRecord struct {
	ProductID   *string `json:"product_id"`
	Name        *string `json:"name"`
	Price       *string `json:"price"`
	Description *string `json:"description"`
	ImageFile   *string `json:"image_file"`
	ImageAlt    *string `json:"image_alt"`
}

// ScrapeResult is the outcome of visiting one target URL
type ScrapeResult struct {
	URL   string         `json:"url"`
	Data  *ProductRecord `json:"data"`
	Error string         `json:"error,omitempty"`
}

// Succeeded reports whether the visit produced a record
func (r ScrapeResult) Succeeded() bool {
	return r.Data != nil && r.Error == ""
}

// ProductID returns the record's product ID, or "" when there is none
func (r ScrapeResult) ProductID() string {
	if r.Data == nil || r.Data.ProductID == nil {
		return ""
	}
	return *r.Data.ProductID
}

// ProductIDFromURL returns the last path segment of rawURL, ignoring trailing slashes
func ProductIDFromURL(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// Value dereferences p, returning "" for nil
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
