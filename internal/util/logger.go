// Package util provides logging setup and virtual serial helpers.
package util

import (
	"fmt"
	"io"
	"log"
	"os"
)

// SetupLogger routes the standard logger to w (stderr when nil) with
// microsecond timestamps. A non-empty prefix is prepended to every line.
func SetupLogger(w io.Writer, prefix string) {
	if w == nil {
		w = os.Stderr
	}
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if prefix != "" {
		prefix += " "
	}
	log.SetPrefix(prefix)
}

// Info logs a lifecycle message for the given component tag, e.g. Info("Main", "stopped").
func Info(tag, msg string, args ...any) {
	log.Printf("[%s] %s", tag, fmt.Sprintf(msg, args...))
}

// Error logs a failure for the given component tag with an ERROR marker.
func Error(tag, msg string, args ...any) {
	log.Printf("[%s] ERROR: %s", tag, fmt.Sprintf(msg, args...))
}

// Fatal logs like Error and exits with status 1.
func Fatal(tag, msg string, args ...any) {
	Error(tag, msg, args...)
	os.Exit(1)
}
