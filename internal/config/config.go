// Package config loads the downloader's JSON configuration file. A missing
// file is created with defaults on first load so there is always something
// to edit. Environment variables override file values after the read.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TRIBUI106/czGDriveDownloader/internal/downloadcfg"
)

// DefaultPath is where Load looks when the caller passes an empty path.
const DefaultPath = "config.json"

// DefaultDownloadDir is where transfers land when nothing else is set.
const DefaultDownloadDir = "./downloads"

// Config carries the download settings shared by the daemon and the CLI.
type Config struct {
	DownloadDir     string `json:"download_directory"`
	WorkerLimit     int    `json:"max_threads"`
	ChunkSize       int    `json:"chunk_size"`
	MaxDepth        int    `json:"max_folder_depth"`
	Deduplicate     bool   `json:"deduplicate"`
	CollisionPolicy string `json:"collision_policy"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		DownloadDir:     DefaultDownloadDir,
		WorkerLimit:     downloadcfg.DefaultWorkerLimit,
		ChunkSize:       downloadcfg.DefaultChunkSize,
		MaxDepth:        downloadcfg.DefaultMaxDepth,
		Deduplicate:     false,
		CollisionPolicy: string(downloadcfg.CollisionOverwrite),
	}
}

// Load reads the config at path, creating the file with defaults when it
// does not exist. GDRIVE_* variables override file values, and nonsense
// values are clamped back to defaults rather than rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("bootstrap config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg as indented JSON, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

// TransferOptions translates the file values into engine options.
func (c *Config) TransferOptions() downloadcfg.TransferOptions {
	return downloadcfg.TransferOptions{
		Policy:    downloadcfg.ParseCollisionPolicy(c.CollisionPolicy),
		ChunkSize: c.ChunkSize,
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GDRIVE_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	c.WorkerLimit = intEnv("GDRIVE_WORKER_LIMIT", c.WorkerLimit)
	c.ChunkSize = intEnv("GDRIVE_CHUNK_SIZE", c.ChunkSize)
	c.MaxDepth = intEnv("GDRIVE_MAX_DEPTH", c.MaxDepth)
	if v := os.Getenv("GDRIVE_DEDUP"); v != "" {
		c.Deduplicate = boolValue(v, c.Deduplicate)
	}
	if v := os.Getenv("GDRIVE_COLLISION_POLICY"); v != "" {
		c.CollisionPolicy = v
	}
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.DownloadDir) == "" {
		c.DownloadDir = DefaultDownloadDir
	}
	if c.WorkerLimit <= 0 {
		c.WorkerLimit = downloadcfg.DefaultWorkerLimit
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = downloadcfg.DefaultChunkSize
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = downloadcfg.DefaultMaxDepth
	}
	c.CollisionPolicy = string(downloadcfg.ParseCollisionPolicy(c.CollisionPolicy))
}

func intEnv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func boolValue(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}
	return def
}
