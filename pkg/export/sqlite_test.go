package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"catalogscraper/pkg/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type row struct {
	URL       string
	ProductID sql.NullString
	Name      sql.NullString
	ImageFile sql.NullString
	Error     sql.NullString
}

func readRows(t *testing.T, db *sql.DB) []row {
	t.Helper()
	rows, err := db.Query(`SELECT url, product_id, name, image_file, error FROM products ORDER BY url`)
	require.NoError(t, err)
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.URL, &r.ProductID, &r.Name, &r.ImageFile, &r.Error))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func valid(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "products.db")

	entries := []models.ScrapeResult{
		{URL: "https://x/product-details/101", Data: &models.ProductRecord{
			ProductID: models.String("101"),
			Name:      models.String("Lampe «Prisma»"),
			ImageFile: models.String("images/101.jpg"),
		}},
		{URL: "https://x/product-details/102", Error: "net::ERR_CONNECTION_RESET"},
	}

	summary, err := ToFile(ctx, path, entries)
	require.NoError(t, err)
	require.Equal(t, Summary{Rows: 2, Succeeded: 1, Failed: 1}, summary)

	// re-exporting upserts by url
	entries[1] = models.ScrapeResult{URL: "https://x/product-details/102", Data: &models.ProductRecord{
		ProductID: models.String("102"),
		Name:      models.String("Stool"),
	}}
	_, err = ToFile(ctx, path, entries)
	require.NoError(t, err)

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	want := []row{
		{URL: "https://x/product-details/101", ProductID: valid("101"), Name: valid("Lampe «Prisma»"), ImageFile: valid("images/101.jpg")},
		{URL: "https://x/product-details/102", ProductID: valid("102"), Name: valid("Stool")},
	}
	if diff := cmp.Diff(want, readRows(t, db)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExportEmpty(t *testing.T) {
	summary, err := ToFile(context.Background(), filepath.Join(t.TempDir(), "empty.db"), nil)
	require.NoError(t, err)
	require.Equal(t, Summary{}, summary)
}
