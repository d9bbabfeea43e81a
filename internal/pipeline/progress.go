package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives batch progress. OnProgress is called exactly once
// per processed item, in order, after the item succeeded or failed.
type ProgressCallback interface {
	// OnStart is called before the first item with the number of inputs.
	OnStart(total int)

	// OnProgress reports that current of total items are done.
	OnProgress(current, total int)

	// OnError reports a failed item; current is its 1-based position.
	OnError(current int, path string, err error)

	// OnComplete is called once with the final (possibly partial) result.
	OnComplete(res *BatchResult)
}

// NoOpProgressCallback ignores all progress.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)                {}
func (NoOpProgressCallback) OnProgress(int, int)        {}
func (NoOpProgressCallback) OnError(int, string, error) {}
func (NoOpProgressCallback) OnComplete(*BatchResult)    {}

// ConsoleProgressCallback draws a single-line progress bar.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration

	mu         sync.Mutex
	startTime  time.Time
	lastUpdate time.Time
	failures   int
}

// NewConsoleProgressCallback creates a 40-cell console progress bar writing
// to writer, or stderr when writer is nil. It redraws at most every 100ms;
// the last item is always drawn.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
	}
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	c.failures = 0
	_, _ = fmt.Fprintf(c.writer, "%s0/%d\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if current < total && now.Sub(c.lastUpdate) < c.updateInterval {
		return
	}
	c.lastUpdate = now
	if total <= 0 {
		return
	}

	filled := c.width * current / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", c.width-filled)
	line := fmt.Sprintf("\r%s[%s] %d/%d (%.1f%%)", c.prefix, bar, current, total,
		float64(current)/float64(total)*100)
	if c.failures > 0 {
		line += fmt.Sprintf(" %d failed", c.failures)
	}
	if elapsed := now.Sub(c.startTime); elapsed > 0 && current > 0 {
		line += fmt.Sprintf(" %.1f/s", float64(current)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.writer, line)
}

func (c *ConsoleProgressCallback) OnError(current int, path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	_, _ = fmt.Fprintf(c.writer, "\n%sfailed item %d (%s): %v\n", c.prefix, current, path, err)
}

func (c *ConsoleProgressCallback) OnComplete(res *BatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sdone in %v\n", c.prefix, time.Since(c.startTime).Round(time.Millisecond))
	if res != nil && res.Canceled {
		_, _ = fmt.Fprintf(c.writer, "%scanceled after %d of %d items\n", c.prefix, res.Processed(), res.Total)
	}
}

// LogProgressCallback reports progress through slog every interval items.
type LogProgressCallback struct {
	logger   *slog.Logger
	level    slog.Level
	interval int

	lastLog   int
	startTime time.Time
}

// NewLogProgressCallback creates a log-based progress reporter.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 10}
}

// WithInterval logs every n items instead of every 10.
func (l *LogProgressCallback) WithInterval(n int) *LogProgressCallback {
	if n > 0 {
		l.interval = n
	}
	return l
}

func (l *LogProgressCallback) OnStart(total int) {
	l.startTime = time.Now()
	l.lastLog = 0
	l.logger.Log(context.Background(), l.level, "batch progress started", "total", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	l.logger.Log(context.Background(), l.level, "batch progress",
		"current", current,
		"total", total,
		"elapsed", time.Since(l.startTime).Round(time.Millisecond),
	)
}

func (l *LogProgressCallback) OnError(current int, path string, err error) {
	l.logger.Log(context.Background(), slog.LevelError, "batch item failed", "current", current, "file", path, "error", err)
}

func (l *LogProgressCallback) OnComplete(res *BatchResult) {
	if res == nil {
		return
	}
	l.logger.Log(context.Background(), l.level, "batch progress finished",
		"succeeded", res.Succeeded, "failed", res.Failed, "canceled", res.Canceled)
}

// MultiProgressCallback fans progress out to several callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback combines callbacks; nil entries are skipped.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	m := &MultiProgressCallback{}
	for _, cb := range callbacks {
		m.Add(cb)
	}
	return m
}

// Add appends a callback.
func (m *MultiProgressCallback) Add(cb ProgressCallback) {
	if cb != nil {
		m.callbacks = append(m.callbacks, cb)
	}
}

func (m *MultiProgressCallback) OnStart(total int) {
	for _, cb := range m.callbacks {
		cb.OnStart(total)
	}
}

func (m *MultiProgressCallback) OnProgress(current, total int) {
	for _, cb := range m.callbacks {
		cb.OnProgress(current, total)
	}
}

func (m *MultiProgressCallback) OnError(current int, path string, err error) {
	for _, cb := range m.callbacks {
		cb.OnError(current, path, err)
	}
}

func (m *MultiProgressCallback) OnComplete(res *BatchResult) {
	for _, cb := range m.callbacks {
		cb.OnComplete(res)
	}
}

// ThrottledProgressCallback forwards OnProgress at most once per interval,
// always letting the first and the last update through.
type ThrottledProgressCallback struct {
	wrapped     ProgressCallback
	minInterval time.Duration

	mu         sync.Mutex
	lastUpdate time.Time
}

// NewThrottledProgressCallback wraps another callback.
func NewThrottledProgressCallback(wrapped ProgressCallback, minInterval time.Duration) *ThrottledProgressCallback {
	return &ThrottledProgressCallback{wrapped: wrapped, minInterval: minInterval}
}

func (t *ThrottledProgressCallback) OnStart(total int) { t.wrapped.OnStart(total) }

func (t *ThrottledProgressCallback) OnProgress(current, total int) {
	t.mu.Lock()
	now := time.Now()
	pass := current == total || t.lastUpdate.IsZero() || now.Sub(t.lastUpdate) >= t.minInterval
	if pass {
		t.lastUpdate = now
	}
	t.mu.Unlock()

	if pass {
		t.wrapped.OnProgress(current, total)
	}
}

func (t *ThrottledProgressCallback) OnError(current int, path string, err error) {
	t.wrapped.OnError(current, path, err)
}

func (t *ThrottledProgressCallback) OnComplete(res *BatchResult) { t.wrapped.OnComplete(res) }

// ProgressTracker is a ProgressCallback that keeps running counters which
// can be read concurrently.
type ProgressTracker struct {
	mu        sync.RWMutex
	startTime time.Time
	endTime   time.Time
	total     int
	current   int
	failed    int
	done      bool
}

// TrackerSnapshot is a point-in-time copy of a ProgressTracker.
type TrackerSnapshot struct {
	Total     int           `json:"total"`
	Current   int           `json:"current"`
	Failed    int           `json:"failed"`
	Done      bool          `json:"done"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Remaining time.Duration `json:"remaining_ns"`
}

// NewProgressTracker returns an idle tracker.
func NewProgressTracker() *ProgressTracker { return &ProgressTracker{} }

func (p *ProgressTracker) OnStart(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime, p.endTime = time.Now(), time.Time{}
	p.total, p.current, p.failed, p.done = total, 0, 0, false
}

func (p *ProgressTracker) OnProgress(current, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
}

func (p *ProgressTracker) OnError(int, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

func (p *ProgressTracker) OnComplete(*BatchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	p.endTime = time.Now()
}

// Snapshot returns the current counters with an ETA estimate.
func (p *ProgressTracker) Snapshot() TrackerSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := TrackerSnapshot{Total: p.total, Current: p.current, Failed: p.failed, Done: p.done}
	switch {
	case p.startTime.IsZero():
	case p.done:
		s.Elapsed = p.endTime.Sub(p.startTime)
	default:
		s.Elapsed = time.Since(p.startTime)
	}
	if p.current > 0 && p.current < p.total {
		perItem := s.Elapsed / time.Duration(p.current)
		s.Remaining = perItem * time.Duration(p.total-p.current)
	}
	return s
}
