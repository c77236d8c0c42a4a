// Package telemetry provides the optional diagnostic logger used by
// simulation and integrator. It defaults to discarding all output, in
// the spirit of a library kernel that should never force log lines onto
// an embedder; callers that want visibility call SetLogger with their
// own *slog.Logger, following the env-selected-handler pattern used
// elsewhere in this corpus for service-level logging.
package telemetry

import (
	"log/slog"
)

var logger = slog.New(slog.NewTextHandler(discard{}, nil))

// SetLogger replaces the package logger. Pass nil to restore the default
// discarding logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = slog.New(slog.NewTextHandler(discard{}, nil))
		return
	}
	logger = l
}

// Get returns the current package logger.
func Get() *slog.Logger {
	return logger
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
