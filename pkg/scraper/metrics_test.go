package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncPage(outcomeScraped)
		m.ObservePage(time.Second)
		m.IncFieldError("price")
		m.AddImage(10)
		m.IncLogin("ok")
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.IncPage(outcomeScraped)
	m.IncFieldError("price")
	m.IncFieldError("price")
	m.AddImage(2048)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FieldErrorsTotal.WithLabelValues("price")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.ImageBytesTotal))

	path := filepath.Join(t.TempDir(), "catalogscraper.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `catalogscraper_pages_total{outcome="scraped"} 1`)
	assert.Contains(t, string(data), `catalogscraper_field_errors_total{field="price"} 2`)

	assert.NoError(t, m.WriteTextfile(""))
}
