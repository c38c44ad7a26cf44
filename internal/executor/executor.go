// Package executor runs external analyzer processes and captures their
// output streams without deadlocking on full pipe buffers.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultGracePolls is how many times the readers are polled after exit.
	DefaultGracePolls = 50
	// DefaultGraceInterval is the sleep between two polls.
	DefaultGraceInterval = 20 * time.Millisecond
)

// Options configures an Executor.
type Options struct {
	// Dir is the working directory of the child; empty means the current one.
	Dir string
	// Env is appended to the parent environment.
	Env []string
	// Timeout bounds the whole run; 0 waits for the child indefinitely.
	Timeout time.Duration

	GracePolls    int
	GraceInterval time.Duration

	Logger *logging.Logger
}

// Executor launches one process per call.
type Executor struct {
	opts Options
	log  *logging.Logger
}

// New creates an executor, filling in defaults for zero options.
func New(opts Options) *Executor {
	if opts.GracePolls <= 0 {
		opts.GracePolls = DefaultGracePolls
	}
	if opts.GraceInterval <= 0 {
		opts.GraceInterval = DefaultGraceInterval
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Executor{opts: opts, log: log}
}

// Run splits commandLine and runs it. See RunArgs.
func (e *Executor) Run(ctx context.Context, commandLine string, stdout, stderr io.Writer) (int, error) {
	argv, err := SplitCommandLine(commandLine)
	if err != nil {
		return -1, domain.NewToolExecutionError(commandLine, err)
	}
	return e.RunArgs(ctx, argv, stdout, stderr)
}

// RunArgs runs argv, copying the child's stdout and stderr into the sinks
// concurrently, and returns its exit code. A non-zero exit code is not an
// error; failing to spawn or to wait for the child is a ToolExecutionError.
// Nil sinks discard the stream.
func (e *Executor) RunArgs(ctx context.Context, argv []string, stdout, stderr io.Writer) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return -1, domain.NewToolExecutionError("", errors.New("empty command line"))
	}
	tool := argv[0]

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return -1, domain.NewToolExecutionError(tool, err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return -1, domain.NewToolExecutionError(tool, err)
	}
	defer closeAll(outR, errR)

	cmd := exec.CommandContext(ctx, tool, argv[1:]...)
	cmd.Dir = e.opts.Dir
	if len(e.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), e.opts.Env...)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	e.log.Debugf("running %s", strings.Join(argv, " "))
	startErr := cmd.Start()
	// The child owns its copies now; ours must go or the readers never see EOF.
	closeAll(outW, errW)
	if startErr != nil {
		return -1, domain.NewToolExecutionError(tool, startErr)
	}

	readers := []*streamReader{
		newStreamReader("stdout", outR, stdout),
		newStreamReader("stderr", errR, stderr),
	}
	var g errgroup.Group
	for _, r := range readers {
		g.Go(r.drain)
	}

	waitErr := cmd.Wait()

	if !e.awaitReaders(readers) {
		e.log.Warnf("%s exited but its output is still open (a child process may hold it); closing", tool)
		for _, r := range readers {
			if r.IsRunning() {
				_ = r.src.Close()
			}
		}
	}
	copyErr := g.Wait()

	if waitErr != nil {
		// a kill by the context also surfaces as an exit error
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, domain.NewToolExecutionError(tool, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return -1, domain.NewToolExecutionError(tool, waitErr)
		}
	}
	if copyErr != nil {
		return -1, domain.NewToolExecutionError(tool, copyErr)
	}

	code := cmd.ProcessState.ExitCode()
	e.log.Debugf("%s exited with code %d", tool, code)
	return code, nil
}

// awaitReaders polls the readers after the child exited and reports whether
// both finished within the grace period.
func (e *Executor) awaitReaders(readers []*streamReader) bool {
	for i := 0; ; i++ {
		running := false
		for _, r := range readers {
			if r.IsRunning() {
				running = true
			}
		}
		if !running {
			return true
		}
		if i >= e.opts.GracePolls {
			return false
		}
		time.Sleep(e.opts.GraceInterval)
	}
}

type streamReader struct {
	name    string
	src     *os.File
	dst     io.Writer
	running atomic.Bool
}

func newStreamReader(name string, src *os.File, dst io.Writer) *streamReader {
	if dst == nil {
		dst = io.Discard
	}
	r := &streamReader{name: name, src: src, dst: dst}
	r.running.Store(true)
	return r
}

// IsRunning reports whether the reader has not reached EOF yet.
func (r *streamReader) IsRunning() bool {
	return r.running.Load()
}

func (r *streamReader) drain() error {
	defer r.running.Store(false)
	if _, err := io.Copy(r.dst, r.src); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("copying %s: %w", r.name, err)
	}
	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// SplitCommandLine splits s on whitespace outside double quotes. Quotes are
// removed; "" yields an empty argument.
func SplitCommandLine(s string) ([]string, error) {
	var (
		args     []string
		cur      strings.Builder
		inQuote  bool
		hasToken bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasToken = true
		case unicode.IsSpace(r) && !inQuote:
			if hasToken {
				args = append(args, cur.String())
				cur.Reset()
				hasToken = false
			}
		default:
			cur.WriteRune(r)
			hasToken = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in command line %q", s)
	}
	if hasToken {
		args = append(args, cur.String())
	}
	return args, nil
}
