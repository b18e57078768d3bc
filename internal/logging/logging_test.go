package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/referents-ia/portail/internal/config"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := setup(config.LogConfig{Level: "debug", Format: "json"}, &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { setup(config.LogConfig{}, &bytes.Buffer{}) })

	log.WithField("panel", "assistant").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["panel"] != "assistant" {
		t.Errorf("panel = %v", entry["panel"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	if err := setup(config.LogConfig{Level: "warn"}, &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { setup(config.LogConfig{}, &bytes.Buffer{}) })

	log.Info("ignored")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn should be written")
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	if err := setup(config.LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}
