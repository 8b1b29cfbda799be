package logz

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo, // unrecognized defaults to info
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestIDInjected(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "info")

	ctx := WithRequestID(context.Background(), "abc-123")
	logger.InfoContext(ctx, "handled request", "path", "/api/meal-plans")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["request_id"] != "abc-123" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["path"] != "/api/meal-plans" {
		t.Errorf("path = %v", entry["path"])
	}
}

func TestNoRequestIDNoAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "info")

	logger.InfoContext(context.Background(), "startup")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if _, present := entry["request_id"]; present {
		t.Error("request_id should be absent without context value")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "error")

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level, got %q", buf.String())
	}
	logger.Error("emitted")
	if buf.Len() == 0 {
		t.Fatal("error record should be emitted")
	}
}
