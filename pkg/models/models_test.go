package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://the-blueprisms.com/product-details/101", "101"},
		{"https://the-blueprisms.com/product-details/101/", "101"},
		{"https://the-blueprisms.com/product-details/101//", "101"},
		{"101", "101"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ProductIDFromURL(tt.url))
		})
	}
}

func TestScrapeResultJSONShape(t *testing.T) {
	failed := ScrapeResult{URL: "https://example.com/p/2", Error: "navigation timeout"}
	out, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://example.com/p/2","data":null,"error":"navigation timeout"}`, string(out))

	ok := ScrapeResult{
		URL:  "https://example.com/p/1",
		Data: &ProductRecord{ProductID: String("1"), Name: String("Lamp")},
	}
	out, err = json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://example.com/p/1","data":{"product_id":"1","name":"Lamp","price":null,"description":null,"image_file":null,"image_alt":null}}`, string(out))
	assert.True(t, ok.Succeeded())
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "1", ok.ProductID())
	assert.Equal(t, "", failed.ProductID())
}
