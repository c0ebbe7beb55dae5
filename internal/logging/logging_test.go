package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", &buf, true)

	log.Info("item saved", zap.Int("item_id", 3), zap.String("recipient_id", "r1"))
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "item saved" {
		t.Errorf("msg = %v, want %q", entry["msg"], "item saved")
	}
	if entry["item_id"] != float64(3) {
		t.Errorf("item_id = %v, want 3", entry["item_id"])
	}
	if entry["recipient_id"] != "r1" {
		t.Errorf("recipient_id = %v, want r1", entry["recipient_id"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf, false)

	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", &buf, false)

	log.Debug("debug line")
	log.Info("info line")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Errorf("debug should be filtered at default level: %q", out)
	}
	if !strings.Contains(out, "info line") {
		t.Errorf("info line missing: %q", out)
	}
}
