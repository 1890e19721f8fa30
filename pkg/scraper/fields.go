package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"catalogscraper/pkg/config"
	"catalogscraper/pkg/logger"
	"catalogscraper/pkg/models"
)

var errNoImageSource = errors.New("image element has no src")

// fieldExtractor fills one field of the record. An error leaves the field null.
type fieldExtractor struct {
	name    string
	extract func(ctx context.Context, s *Scraper, pageURL string, rec *models.ProductRecord) error
}

// productFields is run in order for every product page
var productFields = []fieldExtractor{
	{name: "image", extract: extractImage},
	{name: "name", extract: textField(config.SelectorName, func(r *models.ProductRecord, v *string) { r.Name = v })},
	{name: "price", extract: textField(config.SelectorPrice, func(r *models.ProductRecord, v *string) { r.Price = v })},
	{name: "description", extract: textField(config.SelectorDescription, func(r *models.ProductRecord, v *string) { r.Description = v })},
}

// textField extracts the trimmed text content of the element at selector key
func textField(key string, set func(*models.ProductRecord, *string)) func(context.Context, *Scraper, string, *models.ProductRecord) error {
	return func(ctx context.Context, s *Scraper, _ string, rec *models.ProductRecord) error {
		text, err := s.page.Text(ctx, s.selector(key))
		if err != nil {
			return err
		}
		set(rec, models.String(strings.TrimSpace(text)))
		return nil
	}
}

// extractImage reads the image element, fetches its source through an
// auxiliary tab of the session and stores it as {product_id}.jpg
func extractImage(ctx context.Context, s *Scraper, pageURL string, rec *models.ProductRecord) error {
	sel := s.selector(config.SelectorImage)

	if alt, ok, err := s.page.Attribute(ctx, sel, "alt"); err != nil {
		return err
	} else if ok {
		rec.ImageAlt = models.String(alt)
	}

	src, ok, err := s.page.Attribute(ctx, sel, "src")
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(src) == "" {
		return errNoImageSource
	}

	imageURL, err := resolveURL(pageURL, src)
	if err != nil {
		return err
	}

	aux, err := s.page.OpenAux(ctx)
	if err != nil {
		return err
	}
	data, err := aux.FetchBytes(ctx, imageURL)
	if closeErr := aux.Close(); closeErr != nil {
		s.logger.WithError(closeErr).Warn("Failed to close image tab")
	}
	if err != nil {
		return err
	}

	productID := models.Value(rec.ProductID)
	replacing := s.images.Has(productID)
	path, written, err := s.images.SaveImage(bytes.NewReader(data), productID)
	if err != nil {
		return err
	}
	if replacing {
		s.logger.InfoWithFields("Replaced existing image", map[string]interface{}{
			"product_id": productID,
			"path":       path,
		})
	}

	rec.ImageFile = models.String(path)
	s.metrics.AddImage(written)
	logger.LogImageSaved(s.logger, productID, path, int(written))
	return nil
}

// resolveURL resolves ref against the page it was found on
func resolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", base, err)
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid image src %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
