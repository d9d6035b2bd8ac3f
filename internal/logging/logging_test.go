package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetup_ComponentAttribute(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(Options{Level: "debug", Writer: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	New("loader").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "component=loader") {
		t.Errorf("expected component=loader in output, got: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(Options{Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	New("cv").Info("json check")

	if !strings.Contains(buf.String(), `"level":"INFO"`) {
		t.Errorf("expected JSON level field, got: %s", buf.String())
	}
}

func TestSetup_RejectsUnknown(t *testing.T) {
	if err := Setup(Options{Level: "verbose"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Setup(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"info", false},
		{"DEBUG", false},
		{"warning", false},
		{"error", false},
		{"loud", true},
	}
	for _, tt := range tests {
		_, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
