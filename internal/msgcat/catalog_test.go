package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedKeys(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, k := range []string{
		"help", "register.ok", "check.wait", "check.line", "relation.teammate",
		"match.malformed", "report.player", "report.win", "report.lose",
	} {
		if !c.Has(k) {
			t.Fatalf("missing key %s", k)
		}
	}

	got, err := c.Render("check.line", map[string]any{"MatchID": 42, "Relation": "상대 팀", "Prefix": "!도타", "Token": "v1:42:7"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "42 상대 팀 → !도타 매치 v1:42:7" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestRenderMissing(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("nope", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("register.ok", map[string]any{}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.Text("nope", nil); got != "nope" {
		t.Fatalf("Text fallback = %q", got)
	}
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("a.yaml", "report:\n  win: \"WIN\"\n")
	write("ignored.txt", "report:\n  lose: \"x\"\n")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("report.win", nil); got != "WIN" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("report.lose", nil); !strings.Contains(got, "패배") {
		t.Fatalf("non-yaml file should be ignored: %q", got)
	}

	write("b.yml", "report:\n  win: \"again\"\n")
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestOverrideBadTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("help: \"{{.Prefix\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}
