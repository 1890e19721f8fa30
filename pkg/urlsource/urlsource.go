// Package urlsource produces the ordered list of product URLs a run visits.
package urlsource

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	errs "catalogscraper/pkg/errors"
)

// CommentPrefix marks a line of the URL file as a comment
const CommentPrefix = "//"

// DefaultTestLimit is how many URLs a test run keeps
const DefaultTestLimit = 5

// MaxRangeSize is the largest number of IDs an inclusive range may span
const MaxRangeSize = 1_000_000

// Template renders product URLs from numeric IDs
type Template interface {
	ProductURL(id int) string
}

// TemplateFunc adapts a function to Template
type TemplateFunc func(id int) string

func (f TemplateFunc) ProductURL(id int) string { return f(id) }

// ParseURLs reads one URL per line, skipping blank lines and comment lines.
// Lines are trimmed and file order is preserved.
func ParseURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan URL list: %w", err)
	}
	return urls, nil
}

// ReadFile parses the URL file at path.
// An unreadable file yields an empty list and a source error; callers decide whether that aborts.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return []string{}, errs.Wrap(errs.ErrorTypeSource, err, "read URL file "+path)
	}
	defer f.Close()

	urls, err := ParseURLs(f)
	if err != nil {
		return []string{}, errs.Wrap(errs.ErrorTypeSource, err, "parse URL file "+path)
	}
	return urls, nil
}

// Truncate returns the first limit entries of urls, order preserved
func Truncate(urls []string, limit int) []string {
	if limit < 0 || len(urls) <= limit {
		return urls
	}
	return urls[:limit]
}

// RangeURLs renders one URL per ID in [start, end], ascending
func RangeURLs(tmpl Template, start, end int) []string {
	if end < start {
		return nil
	}
	var urls []string
	for id := start; ; id++ {
		urls = append(urls, tmpl.ProductURL(id))
		if id == end {
			return urls
		}
	}
}

// MissingIDs returns the IDs in [start, end] that are not in known, ascending
func MissingIDs(start, end int, known map[int]struct{}) []int {
	var missing []int
	if end < start {
		return missing
	}
	for id := start; ; id++ {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
		if id == end {
			return missing
		}
	}
}

// MissingURLs renders one URL per ID returned by MissingIDs
func MissingURLs(tmpl Template, start, end int, known map[int]struct{}) []string {
	ids := MissingIDs(start, end, known)
	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		urls = append(urls, tmpl.ProductURL(id))
	}
	return urls
}

// ParseRange parses "a-b" into an inclusive range
func ParseRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("range %q must look like START-END", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", lo, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", hi, err)
	}
	if err := CheckRange(start, end); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// CheckRange rejects empty, negative and oversized inclusive ranges
func CheckRange(start, end int) error {
	switch {
	case start < 0:
		return fmt.Errorf("range start %d cannot be negative", start)
	case end < start:
		return fmt.Errorf("range %d-%d is empty", start, end)
	case end-start >= MaxRangeSize:
		return fmt.Errorf("range %d-%d spans more than %d IDs", start, end, MaxRangeSize)
	}
	return nil
}
