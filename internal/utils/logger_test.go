package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "json")
	logger.WithField("title_id", 7).Debug("Resolved tier")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output did not parse: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "Resolved tier" || entry["title_id"] != float64(7) {
		t.Errorf("unexpected entry %v", entry)
	}

	buf.Reset()
	logger = newLogger(&buf, "info", "text")
	logger.Info("Starting")
	if !strings.Contains(buf.String(), `msg=Starting`) {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestNewLoggerLevelFallback(t *testing.T) {
	if got := NewLogger("nonsense", "text").GetLevel(); got != logrus.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
	if got := NewLogger("warn", "text").GetLevel(); got != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
}
