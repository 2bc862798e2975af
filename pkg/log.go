package kaleido

import (
	"io"
	"log"
)

var logger = log.New(io.Discard, "kaleido: ", 0)

// SetLogger routes the pipeline's debug events to l. A nil l silences them.
// It is not safe to call while a compilation is running.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "kaleido: ", 0)
	}

	logger = l
}

func logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}
