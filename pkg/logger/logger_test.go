package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catalogscraper/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestFieldChaining(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("url", "https://example.com/p/1").
		WithFields(map[string]interface{}{"attempt": 1, "took": 2 * time.Second}).
		WithError(errors.New("boom")).
		Warn("visit failed")

	output := buf.String()
	assert.Contains(t, output, "visit failed")
	assert.Contains(t, output, `"url":"https://example.com/p/1"`)
	assert.Contains(t, output, `"attempt":1`)
	assert.Contains(t, output, `"error":"boom"`)
}

func TestWithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)
	assert.Same(t, l, l.WithError(nil))
}

func TestChildDoesNotLeakFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	parent := bufferLogger(&buf)

	parent.WithField("child", true).Info("one")
	parent.Info("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"child":true`)
	assert.NotContains(t, lines[1], "child")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogProductScraped(tl, "https://example.com/p/1", "1", nil)
	LogProductScraped(tl, "https://example.com/p/2", "2", errors.New("timeout"))
	LogFieldError(tl, "https://example.com/p/3", "price", errors.New("no node"))
	LogImageSaved(tl, "1", "images/1.jpg", 1024)

	assert.True(t, tl.HasMessage("Product scraped"))
	assert.True(t, tl.HasError())

	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "timeout", errs[0].Error)
	assert.Equal(t, "2", errs[0].Fields["product_id"])

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "price", warns[0].Fields["field"])
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())

	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	WithField("k", "v").Info("global")
	assert.True(t, tl.HasMessage("global"))
}
