// Package logging backs the quiet/verbose/brief/debug output levels with
// github.com/charmbracelet/log.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps a *log.Logger with a brief mode: per-target failures render as a
// single tab-delimited line "E\t<target>\t<message>" instead of charmbracelet's normal
// timestamped, colorized format.
type Logger struct {
	l     *log.Logger
	w     io.Writer
	brief bool
}

// New builds a Logger writing to w at level. brief switches Fail to the tab-delimited
// marker format scripts can parse.
func New(w io.Writer, level log.Level, brief bool) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: !brief,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	return &Logger{l: l, w: w, brief: brief}
}

// LevelFor maps the quiet/verbose/debug knobs onto a charmbracelet/log level; quiet
// wins over verbose, debug wins over both.
func LevelFor(quiet, verbose, debug bool) log.Level {
	switch {
	case debug:
		return log.DebugLevel
	case quiet:
		return log.ErrorLevel
	case verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// Infof logs an informational line (a version comparison, a completed download).
func (lg *Logger) Infof(format string, args ...any) { lg.l.Infof(format, args...) }

// Debugf logs a debug-level line (dependency discovery, run timing).
func (lg *Logger) Debugf(format string, args ...any) { lg.l.Debugf(format, args...) }

// Warnf logs a non-fatal warning that does not fail its target (e.g. a dependency
// already satisfied by a binary repo).
func (lg *Logger) Warnf(format string, args ...any) { lg.l.Warnf(format, args...) }

// Fail logs a per-target failure: the "E\t<target>\t<err>" marker in brief mode, a
// normal leveled error line otherwise. Every per-target error kind the worker pool
// skips past surfaces through here.
func (lg *Logger) Fail(target string, err error) {
	if lg.brief {
		fmt.Fprintf(lg.w, "E\t%s\t%s\n", target, err)
		return
	}
	lg.l.Error("target failed", "target", target, "err", err)
}

// Progress returns a helper that logs a message with the elapsed time since it was
// created. cmd/cower uses it to report how long a whole run took.
func (lg *Logger) Progress() *Progress {
	return &Progress{lg: lg, start: time.Now()}
}

// Progress tracks one operation's start time for a single elapsed-time log line.
type Progress struct {
	lg    *Logger
	start time.Time
}

// Done logs msg with the elapsed duration since the Progress was created, at debug
// level so timing noise stays out of normal output.
func (p *Progress) Done(msg string) {
	p.lg.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
