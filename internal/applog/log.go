// Package applog builds the process-wide structured logger: a
// log/slog.Logger that always writes to stderr and, when a log file is
// configured, fans out to it as well via samber/slog-multi.
//
// The teacher's go.mod already pulls in github.com/samber/slog-multi;
// this package is where that dependency is actually wired in, since
// cucaracha itself never got around to using it.
package applog

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// New builds the logger for a run. When path is empty only stderr is
// used; otherwise logs fan out to both stderr and the file at path,
// which is created/appended and left open for the process lifetime.
func New(path string, verbose bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	closeFn := func() error { return nil }

	if path == "" {
		return slog.New(stderrHandler), closeFn, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})

	fanout := slogmulti.Fanout(stderrHandler, fileHandler)
	return slog.New(fanout), f.Close, nil
}

// Discard is a logger that drops everything, for call sites that don't
// want to construct a real sink.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
