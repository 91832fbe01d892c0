package summit

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedData(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.Summit.Name != "PanAfrican AI Summit" {
		t.Fatalf("unexpected summit name: %q", d.Summit.Name)
	}
	if len(d.Pillars) != 5 {
		t.Fatalf("expected 5 pillars, got %d", len(d.Pillars))
	}
	if !strings.Contains(d.Pretty(), "\n  \"summit\"") {
		t.Fatalf("expected indented JSON, got %q", d.Pretty()[:40])
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	if _, err := Parse([]byte(`{"summit":{}}`)); err == nil {
		t.Fatal("expected error for missing summit name")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatal("expected decode error")
	}
}
