// Package monitoring provides the printf-style diagnostic loggers passed to
// study construction, storage and the CLI.
package monitoring

import (
	"io"
	"log"
)

// Logf is a printf-style diagnostic sink.
type Logf func(format string, v ...interface{})

// New returns a Logf writing timestamped lines with the given prefix to w.
func New(w io.Writer, prefix string) Logf {
	return log.New(w, prefix, log.LstdFlags).Printf
}

// Discard drops every message.
func Discard(string, ...interface{}) {}

// OrDiscard returns f, or Discard when f is nil, so callers can log
// unconditionally.
func OrDiscard(f Logf) Logf {
	if f == nil {
		return Discard
	}
	return f
}

// Prefixed wraps f so every message starts with prefix.
func Prefixed(f Logf, prefix string) Logf {
	f = OrDiscard(f)
	return func(format string, v ...interface{}) {
		f(prefix+format, v...)
	}
}
