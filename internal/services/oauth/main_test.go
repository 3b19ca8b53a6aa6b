package oauth

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/j-veylop/claude-tracker/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, slog.LevelDebug)
	os.Exit(m.Run())
}
