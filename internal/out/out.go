// © Ben Garrett https://github.com/bengarrett/unzipple

// Package out prints colored feedback to the terminal and optionally
// appends timestamped, plain text copies of each line to a log file.
package out

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gookit/color"
)

// Severity of a logged message.
type Severity uint

const (
	Info    Severity = iota // Info is routine feedback.
	Warning                 // Warning is a recoverable problem.
	Error                   // Error is a failure that skipped work.
)

// String returns the tag used in log file entries.
func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// stamp is the log file timestamp layout, day first.
const stamp = "02/01/2006 15:04:05"

// Logger writes colored lines to the terminal and, when a log file is
// in use, appends a timestamped plain text copy of each line.
// Logger never fails a caller, write problems are swallowed so that a
// broken terminal or full disk cannot abort an extraction run.
type Logger struct {
	Quiet bool // Quiet drops Info lines from the terminal, the log file still receives them.
	f     *os.File
}

// New returns a Logger that only prints to the terminal.
func New() *Logger {
	return &Logger{}
}

// NewFile returns a Logger that also appends to the named log file.
// A file that cannot be opened is reported once as a warning and the
// logger carries on in terminal only mode.
func NewFile(name string) *Logger {
	l := &Logger{}
	if name == "" {
		return l
	}
	f, err := os.OpenFile(filepath.Clean(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		color.Warn.Printf("The log file is unusable, printing to the terminal only: %s\n", err)
		return l
	}
	l.f = f
	return l
}

// Close the log file when one is in use.
func (l *Logger) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

// Printf prints the formatted string with the severity color and tag.
func (l *Logger) Printf(s Severity, format string, a ...any) {
	l.print(s, fmt.Sprintf(format, a...))
}

// Infof logs routine feedback, hidden from the terminal in quiet mode.
func (l *Logger) Infof(format string, a ...any) {
	l.Printf(Info, format, a...)
}

// Warnf logs a recoverable problem.
func (l *Logger) Warnf(format string, a ...any) {
	l.Printf(Warning, format, a...)
}

// Errorf logs a failure that caused work to be skipped.
func (l *Logger) Errorf(format string, a ...any) {
	l.Printf(Error, format, a...)
}

func (l *Logger) print(s Severity, msg string) {
	l.append(s, msg)
	if l.Quiet && s == Info {
		return
	}
	switch s {
	case Info:
		color.Info.Printf("[%s] %s\n", s, msg)
	case Warning:
		color.Warn.Printf("[%s] %s\n", s, msg)
	case Error:
		color.Danger.Printf("[%s] %s\n", s, msg)
	}
}

// append writes the timestamped line to the log file.
// An unwritable file must never abort the run, errors are dropped.
func (l *Logger) append(s Severity, msg string) {
	if l.f == nil {
		return
	}
	fmt.Fprintf(l.f, "%s [%s] %s\n", time.Now().Format(stamp), s, msg)
}

// ErrFatal prints the error and exits the program.
func ErrFatal(err error) {
	if err != nil {
		color.Error.Tips(" " + err.Error())
	}
	os.Exit(1)
}

// Example is intended for help screens and prints the example command.
func Example(cmd string) {
	if cmd == "" {
		return
	}
	fmt.Fprintln(os.Stdout, color.Debug.Sprint(cmd))
}
