package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuietMode(false)
	})
	return &buf
}

func TestProgressTracker(t *testing.T) {
	pt := NewProgressTracker(4)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/4", pt.Bar())

	pt.Record(true, true)
	pt.Record(false, false)
	assert.Equal(t, 2, pt.Done)
	assert.Equal(t, 1, pt.Succeeded)
	assert.Equal(t, 1, pt.Failed)
	assert.Equal(t, 1, pt.Images)
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 10)+strings.Repeat(ProgressEmpty, 10)+"] 2/4", pt.Bar())

	// more pages than announced keeps the bar full
	for i := 0; i < 4; i++ {
		pt.Record(true, false)
	}
	assert.Contains(t, pt.Bar(), strings.Repeat(ProgressBar, barWidth)+"] 6/4")
}

func TestProgressTrackerEmptyRun(t *testing.T) {
	pt := NewProgressTracker(0)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/0", pt.Bar())
}

func TestPrintFunctions(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Output", "products.json")
	PrintError("Login failed", "bad credentials")
	PrintSuccess("done")

	out := buf.String()
	assert.Contains(t, out, "Output")
	assert.Contains(t, out, "products.json")
	assert.Contains(t, out, "Login failed: bad credentials")
	assert.Contains(t, out, "done")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Output", "products.json")
	PrintHighlight("banner")
	NewProgressTracker(1).PrintSummary()
	assert.Empty(t, buf.String())

	PrintError("fatal")
	assert.Contains(t, buf.String(), "fatal")

	sp := StartSpinner("logging in")
	sp.Stop("ok\n")
	assert.NotContains(t, buf.String(), "logging in")
}

type recordingSender struct {
	titles   []string
	messages []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

func TestNotifierRunFinished(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	assert.NoError(t, n.RunFinished("crawl", 5, 1, nil))
	assert.NoError(t, n.RunFinished("fill", 2, 0, errors.New("context canceled")))

	assert.Equal(t, []string{"catalogscraper crawl finished", "catalogscraper fill stopped"}, sender.titles)
	assert.Equal(t, []string{"5 scraped, 1 failed", "2 scraped, 0 failed: context canceled"}, sender.messages)
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	assert.NoError(t, NewNotifier(false).RunFinished("crawl", 1, 0, nil))
}

func TestAppleScriptQuote(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptQuote(`say "hi" \ bye`))
}
