package config

import (
	"path/filepath"
	"testing"
	"time"
)

func setTestDirs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LOG_DIR", filepath.Join(dir, "log"))
	t.Setenv("TEMP_DIR", filepath.Join(dir, "tmp"))
	t.Setenv("DB_PATH", filepath.Join(dir, "db", "data.db"))
}

func TestLoadDefaults(t *testing.T) {
	setTestDirs(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.DefaultFormat != "vtt" {
		t.Errorf("expected default format vtt, got %s", cfg.DefaultFormat)
	}
	if cfg.Extractor.BinPath != "yt-dlp" {
		t.Errorf("expected default yt-dlp path, got %s", cfg.Extractor.BinPath)
	}
	if cfg.Extractor.ThrottledRate != 256*1024 {
		t.Errorf("expected 256 KiB/s rate ceiling, got %d", cfg.Extractor.ThrottledRate)
	}
	if !cfg.Transcript.CatalogEnabled {
		t.Error("catalog strategy should default to enabled")
	}
	if cfg.Storage.Bucket != "" {
		t.Errorf("storage should default to disabled, got bucket %q", cfg.Storage.Bucket)
	}
}

func TestLoadOverrides(t *testing.T) {
	setTestDirs(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DEFAULT_FORMAT", "SRT")
	t.Setenv("YTDLP_SOCKET_TIMEOUT", "45s")
	t.Setenv("TRANSCRIPT_CATALOG_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.ServerPort)
	}
	if cfg.DefaultFormat != "srt" {
		t.Errorf("format should be lowercased, got %s", cfg.DefaultFormat)
	}
	if cfg.Extractor.SocketTimeout != 45*time.Second {
		t.Errorf("expected 45s socket timeout, got %v", cfg.Extractor.SocketTimeout)
	}
	if cfg.Transcript.CatalogEnabled {
		t.Error("catalog strategy should be disabled")
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	setTestDirs(t)
	t.Setenv("DEFAULT_FORMAT", "ass")

	if _, err := Load(); err == nil {
		t.Error("expected an error for an unknown default format")
	}
}
