package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "info", Format: "json", Output: &buf}).Info("reloaded", "templates", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "reloaded" || record["templates"] != float64(3) {
		t.Errorf("Unexpected record: %v", record)
	}

	buf.Reset()
	New(Config{Format: "text", Output: &buf}).Info("reloaded")
	if !strings.Contains(buf.String(), "msg=reloaded") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: tt.level, Output: &buf})
			logger.Debug("debug-line")
			logger.Info("info-line")

			if got := strings.Contains(buf.String(), "debug-line"); got != tt.debugSeen {
				t.Errorf("debug logged = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(buf.String(), "info-line"); got != tt.infoSeen {
				t.Errorf("info logged = %v, want %v", got, tt.infoSeen)
			}
		})
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return a non-nil logger unchanged")
	}
}
