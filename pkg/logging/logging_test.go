package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/goliatone/go-insightx/pkg/config"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggerConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "shown" || entry["logger"] != "insightx" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(config.LoggerConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(config.LoggerConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}
