package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oppnadata/orgsync/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Error().Msg("error message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	ctx := logging.WithLogger(context.Background(), &logger)
	ctx = logging.WithOrg(ctx, "example-kommun")
	ctx = logging.WithPhase(ctx, "create")

	logging.Ctx(ctx).Info().Msg("organization created")

	output := buf.String()
	for _, want := range []string{"example-kommun", "create", "organization created"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if logging.FromContext(context.Background()) == nil {
		t.Error("Expected default logger for bare context")
	}
	if logging.FromContext(nil) == nil { //nolint:staticcheck // nil context fallback is the point
		t.Error("Expected default logger for nil context")
	}
}

func TestNewRunLogger(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	logger, closer, err := logging.NewRunLogger(dir, now)
	if err != nil {
		t.Fatalf("NewRunLogger: %v", err)
	}
	logger.Info().Msg("mirrored line")
	closer.Close()

	content, err := os.ReadFile(filepath.Join(dir, "orgsync-2026-08-30T10-00-00.log"))
	if err != nil {
		t.Fatalf("reading run log: %v", err)
	}
	if !strings.Contains(string(content), "mirrored line") {
		t.Errorf("Expected mirrored line in run log, got: %s", content)
	}
}
