// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := DefaultConfig()
	if cfg.Server.Port != want.Server.Port || cfg.Worker.Program != want.Worker.Program {
		t.Errorf("Load() without file should yield defaults, got %+v", cfg)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
log_dir: "/var/log/stack"
proxy: {
	http:  "http://proxy:3128"
	https: "http://proxy:3128"
}
worker: {
	pool:        "gevent"
	concurrency: 4
}
server: port: 8080
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogDir != "/var/log/stack" {
		t.Errorf("log_dir = %q", cfg.LogDir)
	}
	if cfg.Proxy.HTTP != "http://proxy:3128" {
		t.Errorf("proxy.http = %q", cfg.Proxy.HTTP)
	}
	if cfg.Worker.Pool != PoolGevent {
		t.Errorf("worker.pool = %q, want gevent", cfg.Worker.Pool)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("worker.concurrency = %d, want 4", cfg.Worker.Concurrency)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	// Untouched fields keep defaults.
	if cfg.Worker.Program != "celery" {
		t.Errorf("worker.program = %q, want default celery", cfg.Worker.Program)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `worker: pool: "fork"`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("Load() expected error for unknown pool mode")
	}
	if !strings.Contains(err.Error(), "pool") {
		t.Errorf("error should mention the offending field: %v", err)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("Load() expected error for missing explicit config file")
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() with canceled context error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Proxy.HTTP = "http://proxy:3128"
	cfg.RuntimeEnv = ".venv"

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(cfg))

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}

	if loaded.Proxy.HTTP != cfg.Proxy.HTTP {
		t.Errorf("round-trip proxy.http = %q, want %q", loaded.Proxy.HTTP, cfg.Proxy.HTTP)
	}
	if loaded.RuntimeEnv != cfg.RuntimeEnv {
		t.Errorf("round-trip runtime_env = %q, want %q", loaded.RuntimeEnv, cfg.RuntimeEnv)
	}
	if JoinQueues(loaded.Worker.Queues) != JoinQueues(cfg.Worker.Queues) {
		t.Errorf("round-trip queues = %v, want %v", loaded.Worker.Queues, cfg.Worker.Queues)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig(false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// Second call without force fails.
	if _, err := CreateDefaultConfig(false); err == nil {
		t.Error("CreateDefaultConfig() should fail when file exists")
	}
	// Force overwrites.
	if _, err := CreateDefaultConfig(true); err != nil {
		t.Errorf("CreateDefaultConfig(force) error = %v", err)
	}
}
