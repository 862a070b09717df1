package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentTools, Format: "json", Output: &buf})

	logger.Info("hello", FieldTool, "monthly-summary")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry[FieldComponent] != ComponentTools {
		t.Fatalf("expected component %q, got %v", ComponentTools, entry[FieldComponent])
	}
	if entry[FieldTool] != "monthly-summary" {
		t.Fatalf("expected tool field, got %v", entry[FieldTool])
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf}).WithComponent(ComponentLedger)

	logger.Warn("careful")

	if got := bytes.Count(buf.Bytes(), []byte(`"component"`)); got != 1 {
		t.Fatalf("expected one component attribute, got %d in %s", got, buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithTool("get-accounts").WithEntity("account", "").WithError(errors.New("boom")).WithError(nil)
	if f[FieldEntity] != "account" {
		t.Fatalf("entity missing: %v", f)
	}
	if _, ok := f[FieldEntityID]; ok {
		t.Fatalf("empty entity id should be omitted")
	}
	if f[FieldError] != "boom" {
		t.Fatalf("error lost: %v", f)
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Fatalf("expected %d slice items, got %d", 2*len(f), got)
	}
}
