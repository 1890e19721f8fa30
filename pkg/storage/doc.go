// Package storage keeps downloaded product images on disk.
//
// Images are written as {product_id}.jpg through a temporary file and a rename,
// so a crash never leaves a truncated image under its final name. Images already
// in the directory are indexed when the Manager is created.
package storage
