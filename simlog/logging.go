// Package simlog provides the tick-by-tick narrative logger a human watches
// scroll by during a headless or windowed run, mirroring the teacher's
// game/logging.go Logf/SetLogWriter pair. It sits alongside, not instead of,
// log/slog: slog carries structured/queryable events (telemetry bookmarks,
// performance summaries), this carries the plain-text progress narrative.
package simlog

import (
	"fmt"
	"io"
)

var writer io.Writer

// SetLogWriter redirects Logf output; nil (the zero value) writes to stdout.
func SetLogWriter(w io.Writer) {
	writer = w
}

// Logf writes a formatted narrative log line.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if writer != nil {
		fmt.Fprintln(writer, msg)
	} else {
		fmt.Println(msg)
	}
}
