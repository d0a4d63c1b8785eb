package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_TO_CONSOLE", "")
	t.Setenv("LOG_CALLER", "")

	o := OptionsFromEnv()
	if o.Level != zapcore.WarnLevel || o.Format != "legacy" || o.File != "" || !o.Console {
		t.Fatalf("unexpected options %+v", o)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.log")
	logger, err := New(Options{Level: zapcore.InfoLevel, Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shared_matches_done", zap.Int("shared", 2))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"shared_matches_done"`) || !strings.Contains(out, `"shared":2`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered at info level")
	}
}

func TestSetAndForRequest(t *testing.T) {
	defer Set(nil)
	path := filepath.Join(t.TempDir(), "req.log")
	logger, err := New(Options{Level: zapcore.InfoLevel, Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Set(logger)
	ForRequest("abc-123").Info("command")
	_ = L().Sync()

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"req_id":"abc-123"`) {
		t.Fatalf("request id missing: %q", raw)
	}
}
