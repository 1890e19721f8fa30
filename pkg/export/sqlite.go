// Package export copies a results document into a SQLite database, one row
// per visited URL.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	errs "catalogscraper/pkg/errors"
	"catalogscraper/pkg/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const upsertProduct = `
INSERT INTO products (url, product_id, name, price, description, image_file, image_alt, error, exported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
    product_id = excluded.product_id,
    name = excluded.name,
    price = excluded.price,
    description = excluded.description,
    image_file = excluded.image_file,
    image_alt = excluded.image_alt,
    error = excluded.error,
    exported_at = excluded.exported_at`

// Summary describes one export
type Summary struct {
	Rows      int
	Succeeded int
	Failed    int
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to open database")
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to apply schema")
	}
	return db, nil
}

// Write upserts entries by URL in a single transaction. A later entry for the
// same URL replaces an earlier one.
func Write(ctx context.Context, db *sql.DB, entries []models.ScrapeResult) (Summary, error) {
	var summary Summary

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return summary, errs.Wrap(errs.ErrorTypeStorage, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertProduct)
	if err != nil {
		return summary, errs.Wrap(errs.ErrorTypeStorage, err, "failed to prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, entry := range entries {
		rec := entry.Data
		if rec == nil {
			rec = &models.ProductRecord{}
		}
		_, err := stmt.ExecContext(ctx,
			entry.URL,
			nullable(rec.ProductID),
			nullable(rec.Name),
			nullable(rec.Price),
			nullable(rec.Description),
			nullable(rec.ImageFile),
			nullable(rec.ImageAlt),
			nullableString(entry.Error),
			now,
		)
		if err != nil {
			return summary, errs.Wrap(errs.ErrorTypeStorage, err, fmt.Sprintf("failed to write %s", entry.URL))
		}

		summary.Rows++
		if entry.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, errs.Wrap(errs.ErrorTypeStorage, err, "failed to commit export")
	}
	return summary, nil
}

// ToFile exports entries into the database at path
func ToFile(ctx context.Context, path string, entries []models.ScrapeResult) (Summary, error) {
	db, err := Open(ctx, path)
	if err != nil {
		return Summary{}, err
	}
	defer db.Close()

	return Write(ctx, db, entries)
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
