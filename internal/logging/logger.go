// Package logging provides the levelled logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Level orders log messages by importance.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
)

// Logger writes level-prefixed lines through a stdlib *log.Logger.
type Logger struct {
	out   *log.Logger
	level Level
	color bool
}

// New creates a logger writing to w at the given minimum level. Prefixes are
// coloured only when w is a terminal.
func New(w io.Writer, level Level) *Logger {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = term.IsTerminal(int(f.Fd())) && !color.NoColor
	}
	return &Logger{
		out:   log.New(w, "", 0),
		level: level,
		color: useColor,
	}
}

// Default logs warnings and errors to stderr.
func Default() *Logger {
	return New(os.Stderr, LevelWarn)
}

// Discard drops everything.
func Discard() *Logger {
	return &Logger{out: log.New(io.Discard, "", 0), level: LevelSilent}
}

// ForFlags picks the level from the usual --verbose / --quiet pair.
func ForFlags(w io.Writer, verbose, quiet bool) *Logger {
	switch {
	case quiet:
		return New(w, LevelError)
	case verbose:
		return New(w, LevelDebug)
	}
	return New(w, LevelInfo)
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelSilent
	}
	return l.level
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level && l.level != LevelSilent
}

func (l *Logger) logf(level Level, prefix string, c *color.Color, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	if l.color {
		prefix = c.Sprint(prefix)
	}
	l.out.Print(prefix + fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, "Debug: ", debugColor, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, "", infoColor, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, "Warning: ", warnColor, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, "Error: ", errorColor, format, args...)
}
