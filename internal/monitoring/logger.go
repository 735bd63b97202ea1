// Package monitoring holds the diagnostic logger and the Prometheus metrics
// shared by the engine, the election-night boards and the HTTP server.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogQuery writes one line per engine query: the view name, the parameters
// rendered by the caller, how long it took and whether it failed.
func LogQuery(view, params string, took time.Duration, err error) {
	if err != nil {
		Logf("[query] %s %s failed after %s: %v", view, params, took.Round(time.Microsecond), err)
		return
	}
	Logf("[query] %s %s ok in %s", view, params, took.Round(time.Microsecond))
}
