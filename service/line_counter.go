package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/config"
)

// Default values for the line counter
const (
	// DefaultMaxConcurrency is used when config value is invalid.
	// NewLineCounter() uses runtime.NumCPU() instead.
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 5 * time.Minute
)

// TaskError represents a single task failure
type TaskError struct {
	TaskName string
	Err      error
}

// Error implements the error interface
func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

// Unwrap returns the underlying error
func (e TaskError) Unwrap() error {
	return e.Err
}

// AggregatedError collects all task failures
type AggregatedError struct {
	Errors []TaskError
}

// Error implements the error interface
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d tasks failed:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap returns the first error for errors.Is/As compatibility
func (e *AggregatedError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0].Err
}

// LineCounter counts the lines of source files in parallel. Files are only
// read; the caller folds the counts.
type LineCounter struct {
	maxConcurrency int
	timeout        time.Duration
	progress       domain.ProgressManager
	count          func(ctx context.Context, path string) (int, error)
	mu             sync.RWMutex
}

// NewLineCounter creates a line counter with defaults.
// Uses runtime.NumCPU() for concurrency and a 5 minute timeout.
func NewLineCounter() *LineCounter {
	return &LineCounter{
		maxConcurrency: runtime.NumCPU(),
		timeout:        DefaultTimeout,
		count:          CountFileLines,
	}
}

// NewLineCounterFromConfig creates a line counter from configuration
func NewLineCounterFromConfig(cfg *config.PerformanceConfig) *LineCounter {
	maxConcurrency := cfg.MaxGoroutines
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &LineCounter{
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
		count:          CountFileLines,
	}
}

// NewLineCounterWithProgress creates a line counter with progress tracking
func NewLineCounterWithProgress(cfg *config.PerformanceConfig, pm domain.ProgressManager) *LineCounter {
	c := NewLineCounterFromConfig(cfg)
	c.progress = pm
	return c
}

// Count returns the line count of every path, in the order given. A file
// that cannot be read counts as zero lines and is reported in the returned
// *AggregatedError; the other counts are still valid.
func (c *LineCounter) Count(ctx context.Context, paths []string) ([]int, error) {
	counts := make([]int, len(paths))
	if len(paths) == 0 {
		return counts, nil
	}

	c.mu.RLock()
	maxConcurrency := c.maxConcurrency
	timeout := c.timeout
	c.mu.RUnlock()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if c.progress != nil {
		task = c.progress.StartTask("Counting source lines", len(paths))
	}
	defer task.Complete()

	g, gCtx := errgroup.WithContext(timeoutCtx)
	g.SetLimit(maxConcurrency)

	var errMu sync.Mutex
	var taskErrors []TaskError

	for i, path := range paths {
		g.Go(func() error {
			var (
				n   int
				err error
			)
			select {
			case <-gCtx.Done():
				err = gCtx.Err()
			default:
				n, err = c.count(gCtx, path)
			}

			task.Increment(1)

			if err != nil {
				errMu.Lock()
				taskErrors = append(taskErrors, TaskError{TaskName: path, Err: err})
				errMu.Unlock()
				return nil
			}
			// each goroutine owns its slot
			counts[i] = n
			return nil
		})
	}

	// Goroutines return nil so every file is attempted; failures are in
	// taskErrors.
	_ = g.Wait()

	if len(taskErrors) > 0 {
		sort.Slice(taskErrors, func(i, j int) bool {
			return taskErrors[i].TaskName < taskErrors[j].TaskName
		})
		return counts, &AggregatedError{Errors: taskErrors}
	}
	return counts, nil
}

// SetMaxConcurrency sets the maximum number of concurrent reads
func (c *LineCounter) SetMaxConcurrency(max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if max > 0 {
		c.maxConcurrency = max
	}
}

// SetTimeout sets the timeout for a whole Count call
func (c *LineCounter) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		c.timeout = timeout
	}
}

// CountFileLines counts newline-terminated lines plus a final unterminated
// one.
func CountFileLines(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 32*1024)
	buf := make([]byte, 32*1024)
	lines := 0
	last := byte('\n')
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		lines++
	}
	return lines, nil
}
