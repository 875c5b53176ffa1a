// Package progress tracks per-stage pipeline counters and renders them on
// a single terminal line.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Stage tracks one pipeline stage's item counters
type Stage struct {
	name    string
	total   atomic.Int64
	done    atomic.Int64
	tracker *Tracker
}

// AddTotal records newly discovered work for the stage
func (s *Stage) AddTotal(n int64) {
	s.total.Add(n)
	s.tracker.render()
}

// Inc records one completed item
func (s *Stage) Inc() {
	s.done.Add(1)
	s.tracker.render()
}

// Counts returns the completed and total item counts
func (s *Stage) Counts() (done, total int64) {
	return s.done.Load(), s.total.Load()
}

// Tracker owns a set of stages and renders them together
type Tracker struct {
	mu        sync.Mutex
	stages    []*Stage
	startTime time.Time
	enabled   bool
}

// NewTracker creates a new tracker. When enabled is false all rendering is
// suppressed and only the counters are kept.
func NewTracker(enabled bool) *Tracker {
	return &Tracker{
		startTime: time.Now(),
		enabled:   enabled,
	}
}

// Stage registers a named stage
func (t *Tracker) Stage(name string) *Stage {
	t.mu.Lock()
	defer t.mu.Unlock()

	stage := &Stage{name: name, tracker: t}
	t.stages = append(t.stages, stage)
	return stage
}

// Elapsed returns the time since the tracker was created
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// render redraws the status line
func (t *Tracker) render() {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parts := make([]string, 0, len(t.stages))
	for _, stage := range t.stages {
		done, total := stage.Counts()
		parts = append(parts, fmt.Sprintf("%s %d/%d", stage.name, done, total))
	}

	fmt.Fprintf(os.Stderr, "\r\033[K%s", strings.Join(parts, " | "))
}

// Finish terminates the status line
func (t *Tracker) Finish() {
	if !t.enabled {
		return
	}
	fmt.Fprint(os.Stderr, "\n")
}
