package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// ProgressTracker keeps track of crawl progress
type ProgressTracker struct {
	mu        sync.Mutex
	Total     int
	Done      int
	Succeeded int
	Failed    int
	Images    int
	StartTime time.Time
}

// NewProgressTracker creates a tracker for a crawl of total pages
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Record counts one visited page
func (pt *ProgressTracker) Record(succeeded, imageSaved bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.Done++
	if succeeded {
		pt.Succeeded++
	} else {
		pt.Failed++
	}
	if imageSaved {
		pt.Images++
	}
}

// Bar returns a formatted progress bar
func (pt *ProgressTracker) Bar() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.bar()
}

func (pt *ProgressTracker) bar() string {
	filled := 0
	if pt.Total > 0 {
		filled = pt.Done * barWidth / pt.Total
	}
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, pt.Done, pt.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (pt *ProgressTracker) GetElapsedTime() time.Duration {
	return time.Since(pt.StartTime)
}

// GetRate returns the average number of pages per minute
func (pt *ProgressTracker) GetRate() float64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	elapsed := time.Since(pt.StartTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(pt.Done) / elapsed
}

// PrintProgress prints the current progress status on one line
func (pt *ProgressTracker) PrintProgress(url string) {
	pt.mu.Lock()
	line := fmt.Sprintf("\r%s %s %s", Green("[SCRAPED]"), pt.bar(), Dim(url))
	pt.mu.Unlock()

	printf(false, "%s", line)
}

// PrintSummary prints the totals of the run
func (pt *ProgressTracker) PrintSummary() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	printf(false, "\n%s %d succeeded, %d failed, %d images in %s\n",
		Magenta("[COMPLETE]"),
		pt.Succeeded,
		pt.Failed,
		pt.Images,
		time.Since(pt.StartTime).Round(time.Second))
}
