package telemetry_test

import (
	"log/slog"
	"testing"

	"github.com/ylchen/barnes-hut-nbody/internal/telemetry"
)

func TestDefaultLoggerDiscardsWithoutPanicking(t *testing.T) {
	telemetry.Get().Info("should be discarded")
}

func TestSetLoggerThenRestoreDefault(t *testing.T) {
	telemetry.SetLogger(slog.Default())
	telemetry.Get().Info("now visible")
	telemetry.SetLogger(nil)
	telemetry.Get().Info("discarded again")
}
