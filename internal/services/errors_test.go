package services_test

import (
	"errors"
	"strings"
	"testing"

	"quotereel/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "compose", "ffmpeg", "failed", base)
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
	for _, fragment := range []string{"compose", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"config", services.Wrap(services.ErrConfiguration, "resolve", "", "bad position", nil), services.KindConfig},
		{"validation", services.Wrap(services.ErrValidation, "submit", "", "no scenes", nil), services.KindConfig},
		{"not found", services.Wrap(services.ErrNotFound, "store", "get", "", nil), services.KindNotFound},
		{"timeout", services.Wrap(services.ErrTimeout, "image", "poll", "", nil), services.KindTimeout},
		{"storage", services.Wrap(services.ErrStorage, "store", "update", "", errors.New("disk full")), services.KindStorage},
		{"plain", errors.New("exit status 1"), services.KindStage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Kind(tc.err); got != tc.want {
				t.Fatalf("Kind = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStorageIsNotStageFailure(t *testing.T) {
	if services.IsStageFailure(services.Wrap(services.ErrStorage, "store", "update", "", nil)) {
		t.Fatal("storage errors must not be classified as stage failures")
	}
	if !services.IsStageFailure(services.Wrap(services.ErrTimeout, "image", "poll", "", nil)) {
		t.Fatal("timeouts are stage failures")
	}
	if services.IsStageFailure(nil) {
		t.Fatal("nil is not a failure")
	}
}

func TestDetailsCarriesRootCause(t *testing.T) {
	base := errors.New("font not found")
	err := services.Wrap(services.ErrConfiguration, "compose", "fonts", "resolve quote font", base)
	details := services.Details("compose", err)
	if details.Kind != services.KindConfig {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if details.Message != "font not found" {
		t.Fatalf("unexpected message %q", details.Message)
	}
	if !strings.Contains(details.Detail, "resolve quote font") {
		t.Fatalf("detail should hold full chain, got %q", details.Detail)
	}
	if details.Stage != "compose" {
		t.Fatalf("unexpected stage %q", details.Stage)
	}
}

func TestDetailsWithoutCauseKeepsContext(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "compose", "resolve font", "font not found: Missing.otf", nil)
	details := services.Details("scene 1/1: compose", err)
	if details.Message != "compose: resolve font: font not found: Missing.otf" {
		t.Fatalf("unexpected message %q", details.Message)
	}
	if details.Detail != err.Error() {
		t.Fatalf("detail should be the full error, got %q", details.Detail)
	}
}
