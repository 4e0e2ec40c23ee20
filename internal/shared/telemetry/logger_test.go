package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		_ = SetLevel("info")
	})
	return &buf
}

func TestInfoWritesJSONLine(t *testing.T) {
	buf := captureLogs(t)

	Info("rules.loaded", map[string]any{"source": "file:rules.json", "workpieces": 4})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["msg"] != "rules.loaded" || payload["level"] != "info" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["source"] != "file:rules.json" {
		t.Fatalf("unexpected source: %v", payload["source"])
	}
	if payload["workpieces"] != float64(4) {
		t.Fatalf("unexpected workpieces: %v", payload["workpieces"])
	}
	if _, ok := payload["ts"].(string); !ok {
		t.Fatalf("expected ts string, got %v", payload["ts"])
	}
}

func TestErrorIncludesErrorText(t *testing.T) {
	buf := captureLogs(t)

	Error("rules.load_failed", map[string]any{"error": errors.New("boom")})

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Fatalf("expected error text in %q", buf.String())
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	buf := captureLogs(t)

	Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug line should be filtered at info level")
	}
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Debug("shown", nil)
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	if err := SetLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
