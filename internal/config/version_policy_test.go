package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_UnknownConfigVersion(t *testing.T) {
	d := t.TempDir()
	cfg := filepath.Join(d, "unknown_version.cue")
	content := "{\n  configVersion: \"2\"\n}\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	_, err := Load(cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "unsupported configVersion: \"2\" (supported: 1)"
	if err.Error() != want || !errors.Is(err, ErrUnsupportedConfigVersion) {
		t.Fatalf("unexpected error\nwant: %s\n got: %s", want, err.Error())
	}
}

func TestLoad_MissingVersion(t *testing.T) {
	d := t.TempDir()
	cfg := filepath.Join(d, FileName)
	if err := os.WriteFile(cfg, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	_, err := Load(cfg)
	if err == nil || err.Error() != "missing required field: configVersion" {
		t.Fatalf("unexpected error: %v", err)
	}
}
