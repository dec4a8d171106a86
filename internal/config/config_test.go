package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Complete() {
		t.Error("fresh defaults report as configured")
	}
	if cfg.IMAP.Port != "993" || cfg.IMAP.Security != "tls" {
		t.Errorf("IMAP defaults = %+v", cfg.IMAP)
	}
	if cfg.SMTP.Port != "465" {
		t.Errorf("SMTP defaults = %+v", cfg.SMTP)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &AppConfig{
		IMAP:   ServerConfig{Host: "imap.example.com", Port: "993", Security: "tls", Username: "bob"},
		SMTP:   ServerConfig{Host: "smtp.example.com", Port: "587", Security: "starttls", Username: "bob"},
		User:   UserConfig{Name: "Bob Tester", Email: "bob@example.com"},
		Editor: "nano",
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
	if !got.Complete() {
		t.Error("full config reports as unconfigured")
	}
}

func TestEditorCommandFallback(t *testing.T) {
	cfg := &AppConfig{Editor: "emacs"}
	if got := cfg.EditorCommand(); got != "emacs" {
		t.Errorf("EditorCommand = %q", got)
	}

	cfg.Editor = ""
	t.Setenv("EDITOR", "helix")
	if got := cfg.EditorCommand(); got != "helix" {
		t.Errorf("EditorCommand = %q, want $EDITOR", got)
	}

	t.Setenv("EDITOR", "")
	if got := cfg.EditorCommand(); got != "vi" {
		t.Errorf("EditorCommand = %q, want vi", got)
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	if err := Save(path, defaultAppConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
}
