package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"subtrans/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "ollama", "generate", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ollama", "generate", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "subtitles", "read", "unsupported format", nil)
	if code := services.ExitCode(validationErr); code != services.ExitUsage {
		t.Fatalf("expected usage exit for validation error, got %d", code)
	}

	wrapped := fmt.Errorf("translate: %w", services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil))
	if code := services.ExitCode(wrapped); code != services.ExitUsage {
		t.Fatalf("expected usage exit for configuration error, got %d", code)
	}

	transientErr := services.Wrap(services.ErrTransient, "ollama", "generate", "503", errors.New("io"))
	if code := services.ExitCode(transientErr); code != services.ExitFailure {
		t.Fatalf("expected failure exit for transient error, got %d", code)
	}

	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected zero for nil error, got %d", code)
	}
}

func TestRetryable(t *testing.T) {
	if !services.Retryable(services.Wrap(services.ErrTimeout, "ollama", "chat", "", nil)) {
		t.Fatal("expected timeout to be retryable")
	}
	if services.Retryable(services.Wrap(services.ErrValidation, "ollama", "chat", "", nil)) {
		t.Fatal("expected validation error to be final")
	}
}
