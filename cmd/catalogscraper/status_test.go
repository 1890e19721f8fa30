package main

import (
	"os"
	"path/filepath"
	"testing"

	"catalogscraper/pkg/models"
	"catalogscraper/pkg/results"
	"catalogscraper/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingImages(t *testing.T) {
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imageDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "582.jpg"), []byte("a"), 0644))

	store := results.New(filepath.Join(dir, "products.json"))
	store.Append(
		models.ScrapeResult{URL: productURL("582"), Data: &models.ProductRecord{ProductID: models.String("582")}},
		models.ScrapeResult{URL: productURL("583"), Data: &models.ProductRecord{ProductID: models.String("583")}},
		models.ScrapeResult{URL: productURL("584"), Error: "navigation timeout"},
		models.ScrapeResult{URL: productURL("583"), Data: &models.ProductRecord{ProductID: models.String("583")}},
	)

	images, err := storage.Open(imageDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"583"}, missingImages(store, images))

	empty, err := storage.Open(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Equal(t, []string{"582", "583"}, missingImages(store, empty))
	_, err = os.Stat(filepath.Join(dir, "absent"))
	assert.True(t, os.IsNotExist(err))
}
