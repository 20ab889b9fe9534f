package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	if err := SetLevelString("info"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	l := New(&buf).Named("debate")
	l.Info(context.Background(), "turn resolved", String("outcome", "replied"), Int("turns", 3))

	out := buf.String()
	for _, want := range []string{"turn resolved", "component=debate", "outcome=replied", "turns=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	defer SetLevelString("info")

	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden too")
	l.Warn(context.Background(), "visible", Err(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "boom") {
		t.Errorf("expected warn with error field, got %q", out)
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestGetBeforeInitIsUsable(t *testing.T) {
	Get().Info(context.Background(), "no panic")
}
