package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one run
type Metrics struct {
	Registry         *prometheus.Registry
	PagesTotal       *prometheus.CounterVec
	PageDuration     prometheus.Histogram
	FieldErrorsTotal *prometheus.CounterVec
	ImagesSavedTotal prometheus.Counter
	ImageBytesTotal  prometheus.Counter
	LoginsTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogscraper_pages_total",
			Help: "Product pages visited, by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalogscraper_page_duration_seconds",
			Help:    "Time spent on one product page, delays included.",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34, 60},
		},
	)
	fieldErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogscraper_field_errors_total",
			Help: "Field extractions that failed and fell back to null.",
		},
		[]string{"field"},
	)
	images := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogscraper_images_saved_total",
			Help: "Product images written to disk.",
		},
	)
	imageBytes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogscraper_image_bytes_total",
			Help: "Bytes of product images written to disk.",
		},
	)
	logins := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogscraper_logins_total",
			Help: "Login attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(pages, pageDuration, fieldErrors, images, imageBytes, logins)

	return &Metrics{
		Registry:         registry,
		PagesTotal:       pages,
		PageDuration:     pageDuration,
		FieldErrorsTotal: fieldErrors,
		ImagesSavedTotal: images,
		ImageBytesTotal:  imageBytes,
		LoginsTotal:      logins,
	}
}

// IncPage counts a visited page
func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// ObservePage records the time spent on a page
func (m *Metrics) ObservePage(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}

// IncFieldError counts a failed field extraction
func (m *Metrics) IncFieldError(field string) {
	if m == nil {
		return
	}
	m.FieldErrorsTotal.WithLabelValues(field).Inc()
}

// AddImage counts a saved image and its size
func (m *Metrics) AddImage(bytes int64) {
	if m == nil {
		return
	}
	m.ImagesSavedTotal.Inc()
	m.ImageBytesTotal.Add(float64(bytes))
}

// IncLogin counts a login attempt
func (m *Metrics) IncLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter's textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
