package urlsource

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "catalogscraper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTemplate = TemplateFunc(func(id int) string {
	return fmt.Sprintf("https://the-blueprisms.com/product-details/%d", id)
})

func TestParseURLs(t *testing.T) {
	input := strings.Join([]string{
		"// catalog export",
		"https://the-blueprisms.com/product-details/101",
		"",
		"   ",
		"  https://the-blueprisms.com/product-details/102  ",
		"// https://the-blueprisms.com/product-details/999",
		"https://the-blueprisms.com/product-details/103",
		"",
	}, "\n")

	urls, err := ParseURLs(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://the-blueprisms.com/product-details/101",
		"https://the-blueprisms.com/product-details/102",
		"https://the-blueprisms.com/product-details/103",
	}, urls)
}

func TestReadFile(t *testing.T) {
	t.Run("reads urls", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "urls.txt")
		require.NoError(t, os.WriteFile(path, []byte("a\r\n//b\r\nc\r\n"), 0644))

		urls, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, urls)
	})

	t.Run("missing file yields empty list and source error", func(t *testing.T) {
		urls, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrorTypeSource))
		assert.NotNil(t, urls)
		assert.Empty(t, urls)
	})
}

func TestTruncate(t *testing.T) {
	urls := []string{"1", "2", "3", "4", "5", "6", "7"}

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, Truncate(urls, DefaultTestLimit))
	assert.Equal(t, []string{"1", "2"}, Truncate(urls[:2], DefaultTestLimit))
	assert.Equal(t, urls, Truncate(urls, -1))
	assert.Empty(t, Truncate(nil, DefaultTestLimit))
}

func TestMissingIDs(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		known      []int
		want       []int
	}{
		{"gaps in range", 582, 585, []int{582, 583, 590}, []int{584, 585}},
		{"nothing known", 1, 3, nil, []int{1, 2, 3}},
		{"all known", 5, 6, []int{5, 6}, nil},
		{"single id", 7, 7, []int{}, []int{7}},
		{"inverted range", 9, 8, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			known := make(map[int]struct{})
			for _, id := range tt.known {
				known[id] = struct{}{}
			}
			assert.Equal(t, tt.want, MissingIDs(tt.start, tt.end, known))
		})
	}
}

// Every ID in the range is either known or emitted exactly once, in ascending order.
func TestMissingURLsIsSetDifference(t *testing.T) {
	known := map[int]struct{}{}
	for id := 10; id <= 60; id += 3 {
		known[id] = struct{}{}
	}

	urls := MissingURLs(testTemplate, 10, 60, known)

	seen := map[int]bool{}
	prev := 0
	for _, u := range urls {
		var id int
		_, err := fmt.Sscanf(u, "https://the-blueprisms.com/product-details/%d", &id)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
		_, isKnown := known[id]
		assert.False(t, isKnown)
		seen[id] = true
	}
	for id := 10; id <= 60; id++ {
		_, isKnown := known[id]
		assert.True(t, isKnown != seen[id], "id %d", id)
	}
}

func TestRangeURLs(t *testing.T) {
	assert.Equal(t, []string{
		"https://the-blueprisms.com/product-details/1",
		"https://the-blueprisms.com/product-details/2",
	}, RangeURLs(testTemplate, 1, 2))
	assert.Nil(t, RangeURLs(testTemplate, 3, 2))
}

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("582-1298")
	require.NoError(t, err)
	assert.Equal(t, 582, start)
	assert.Equal(t, 1298, end)

	for _, bad := range []string{"582", "a-2", "1-b", "9-3", "0-1000000", fmt.Sprintf("1-%d", math.MaxInt)} {
		_, _, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}

	_, _, err = ParseRange("0-999999")
	assert.NoError(t, err)
}

func TestRangesEndingAtMaxInt(t *testing.T) {
	start := math.MaxInt - 2

	urls := RangeURLs(TemplateFunc(func(id int) string { return fmt.Sprint(id) }), start, math.MaxInt)
	require.Len(t, urls, 3)
	assert.Equal(t, fmt.Sprint(math.MaxInt), urls[2])

	known := map[int]struct{}{math.MaxInt - 1: {}}
	assert.Equal(t, []int{start, math.MaxInt}, MissingIDs(start, math.MaxInt, known))
}
