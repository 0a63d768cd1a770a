package logging

import (
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiGreen = "\033[32m"
	ansiReset = "\033[0m"
)

// Logger is a leveled logger passed explicitly to every component that
// reports progress. Verbosity is per-instance state, not a process-wide
// flag.
type Logger struct {
	verbose bool
	color   bool
	info    *log.Logger
	errs    *log.Logger
}

// New builds a logger writing info to stdout and errors to stderr.
// Highlighting is enabled only when stdout is a terminal.
func New(verbose bool) *Logger {
	return &Logger{
		verbose: verbose,
		color:   isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		info:    log.New(os.Stdout, "", log.Ldate|log.Ltime),
		errs:    log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{
		info: log.New(io.Discard, "", 0),
		errs: log.New(io.Discard, "", 0),
	}
}

func (l *Logger) Infof(format string, v ...any) {
	l.info.Printf(format, v...)
}

// Debugf logs only when the logger is verbose.
func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose {
		l.info.Printf(format, v...)
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	l.errs.Printf(format, v...)
}

// Highlight wraps s in green when the output is a terminal, mirroring
// how ids and names are called out in progress lines.
func (l *Logger) Highlight(s string) string {
	if l.color {
		return ansiGreen + s + ansiReset
	}
	return s
}
