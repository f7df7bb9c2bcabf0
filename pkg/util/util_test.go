package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	at := time.Unix(1700000000, 0)
	c := FixedClock(at)
	if !c.Now().Equal(at) {
		t.Errorf("Now() = %v, want %v", c.Now(), at)
	}
	if got := UnixSeconds(c); got != 1700000000 {
		t.Errorf("UnixSeconds = %d, want 1700000000", got)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "warn", "error"} {
		if _, err := NewLogger(lvl); err != nil {
			t.Errorf("NewLogger(%q): %v", lvl, err)
		}
	}
	if _, err := NewLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	logger, err := NewLoggerWithFile(path, "info")
	if err != nil {
		t.Fatalf("NewLoggerWithFile: %v", err)
	}
	logger.Info("order_signed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"order_signed"`) {
		t.Errorf("log file = %s", data)
	}
	if !strings.Contains(string(data), `"ts":`) {
		t.Error("log entry missing ts field")
	}
}
