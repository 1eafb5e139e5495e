package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TRIBUI106/czGDriveDownloader/internal/downloadcfg"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GDRIVE_DOWNLOAD_DIR",
		"GDRIVE_WORKER_LIMIT",
		"GDRIVE_CHUNK_SIZE",
		"GDRIVE_MAX_DEPTH",
		"GDRIVE_DEDUP",
		"GDRIVE_COLLISION_POLICY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadBootstrapsMissingFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DownloadDir != DefaultDownloadDir {
		t.Errorf("expected default download dir, got %q", cfg.DownloadDir)
	}
	if cfg.WorkerLimit != downloadcfg.DefaultWorkerLimit {
		t.Errorf("expected default worker limit, got %d", cfg.WorkerLimit)
	}
	if cfg.ChunkSize != downloadcfg.DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", cfg.ChunkSize)
	}
	if cfg.MaxDepth != downloadcfg.DefaultMaxDepth {
		t.Errorf("expected default max depth, got %d", cfg.MaxDepth)
	}
	if cfg.Deduplicate {
		t.Error("dedup should default to off")
	}
	if cfg.CollisionPolicy != string(downloadcfg.CollisionOverwrite) {
		t.Errorf("expected overwrite policy, got %q", cfg.CollisionPolicy)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("bootstrap should have written the file: %v", err)
	}
	if !strings.Contains(string(raw), "download_directory") {
		t.Errorf("written file missing expected keys: %s", raw)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reloading bootstrapped file: %v", err)
	}
	if *again != *cfg {
		t.Errorf("reload mismatch: %+v vs %+v", again, cfg)
	}
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
    "download_directory": "/data/files",
    "max_threads": 9,
    "chunk_size": 65536,
    "max_folder_depth": 2,
    "deduplicate": true,
    "collision_policy": "rename"
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DownloadDir != "/data/files" {
		t.Errorf("unexpected download dir %q", cfg.DownloadDir)
	}
	if cfg.WorkerLimit != 9 {
		t.Errorf("unexpected worker limit %d", cfg.WorkerLimit)
	}
	if cfg.ChunkSize != 65536 {
		t.Errorf("unexpected chunk size %d", cfg.ChunkSize)
	}
	if cfg.MaxDepth != 2 {
		t.Errorf("unexpected max depth %d", cfg.MaxDepth)
	}
	if !cfg.Deduplicate {
		t.Error("expected dedup enabled")
	}
	if cfg.CollisionPolicy != string(downloadcfg.CollisionRename) {
		t.Errorf("unexpected policy %q", cfg.CollisionPolicy)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"download_directory": "/data/files", "max_threads": 9}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GDRIVE_DOWNLOAD_DIR", "/mnt/bulk")
	t.Setenv("GDRIVE_WORKER_LIMIT", "2")
	t.Setenv("GDRIVE_DEDUP", "yes")
	t.Setenv("GDRIVE_COLLISION_POLICY", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DownloadDir != "/mnt/bulk" {
		t.Errorf("env override lost, got %q", cfg.DownloadDir)
	}
	if cfg.WorkerLimit != 2 {
		t.Errorf("env override lost, got %d", cfg.WorkerLimit)
	}
	if !cfg.Deduplicate {
		t.Error("expected dedup enabled via env")
	}
	if cfg.CollisionPolicy != string(downloadcfg.CollisionError) {
		t.Errorf("unexpected policy %q", cfg.CollisionPolicy)
	}
}

func TestLoadClampsNonsense(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
    "download_directory": "   ",
    "max_threads": -4,
    "chunk_size": 0,
    "max_folder_depth": -1,
    "collision_policy": "explode"
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	if *cfg != *want {
		t.Errorf("expected defaults after clamping, got %+v", cfg)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for corrupt JSON")
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "deeper", "config.json")

	if err := Default().Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
}

func TestTransferOptions(t *testing.T) {
	cfg := &Config{ChunkSize: 1024, CollisionPolicy: "rename"}

	opts := cfg.TransferOptions()

	if opts.ChunkSize != 1024 {
		t.Errorf("unexpected chunk size %d", opts.ChunkSize)
	}
	if opts.Policy != downloadcfg.CollisionRename {
		t.Errorf("unexpected policy %q", opts.Policy)
	}
}
