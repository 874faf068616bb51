package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{DefaultProfile: "work", BaseURL: "https://chat.example.com", SearchDebounce: "450ms"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.BaseURL != "https://chat.example.com" {
		t.Errorf("BaseURL = %q", loaded.BaseURL)
	}
	if loaded.Debounce() != 450*time.Millisecond {
		t.Errorf("Debounce() = %v, want 450ms", loaded.Debounce())
	}
	if loaded.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", loaded.PageSize, DefaultPageSize)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.Timeout() != DefaultRequestTimeout {
		t.Errorf("Timeout() = %v, want %v", cfg.Timeout(), DefaultRequestTimeout)
	}
	if cfg.Reconcile() != 0 {
		t.Errorf("Reconcile() = %v, want 0 (disabled)", cfg.Reconcile())
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`search_debounce = "soon"`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid search_debounce")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
