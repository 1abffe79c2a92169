package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	logger, closer, err := InitLogger(dir, slog.LevelInfo)
	require.NoError(t, err)

	logger.Info("session opened", "tab", "t1")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "leona.log"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"msg":"session opened"`)
	require.Contains(t, string(raw), `"tab":"t1"`)
}

func TestInitTelemetry(t *testing.T) {
	dir := t.TempDir()
	tracer, meter, cleanup, err := InitTelemetry(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, tracer)
	require.NotNil(t, meter)

	_, span := tracer.Start(context.Background(), "test")
	span.End()
	cleanup()

	_, err = os.Stat(filepath.Join(dir, "leona_traces.log"))
	require.NoError(t, err)
}
