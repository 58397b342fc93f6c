package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_JSONEntryCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo, FormatJSON)
	logger.SetOutput(&buf)

	logger.WithField("address", "0xabc").WithFields(map[string]interface{}{"id": 42}).Info("profile loaded")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Message != "profile loaded" || entry.Level != "info" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Fields["address"] != "0xabc" || entry.Fields["id"] != float64(42) {
		t.Errorf("fields = %v", entry.Fields)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn, FormatText)
	logger.SetOutput(&buf)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "warn: kept") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestLogger_ChildSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(LevelInfo, FormatText)
	child := root.WithField("component", "screen")
	root.SetOutput(&buf)

	child.Error("boom")

	out := buf.String()
	if !strings.Contains(out, `"component":"screen"`) || !strings.Contains(out, "caller=") {
		t.Errorf("child output = %q", out)
	}
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := Discard()
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestFromContext(t *testing.T) {
	logger := Discard()
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext() did not return the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() should fall back to the global logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseLogFormat("text") != FormatText || ParseLogFormat("xml") != FormatJSON {
		t.Error("ParseLogFormat() mismatch")
	}
}
