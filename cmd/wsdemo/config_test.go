package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func TestLoadConfigFileOverrides(t *testing.T) {
	cfg, err := loadConfigFile(filepath.Join("ex.config.toml"), defaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Endpoint != "ws://127.0.0.1:9001/feed" {
		t.Fatalf("unexpected endpoint: %q", cfg.Endpoint)
	}
	if cfg.Message != "Hello from the config file!" {
		t.Fatalf("unexpected message: %q", cfg.Message)
	}
	if cfg.Hold != 2*time.Second {
		t.Fatalf("unexpected hold: %v", cfg.Hold)
	}
	if cfg.OpenTimeout != 3*time.Second {
		t.Fatalf("unexpected open timeout: %v", cfg.OpenTimeout)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel)
	}
	if cfg.Headers["Authorization"] != "Bearer local-dev" {
		t.Fatalf("unexpected headers: %+v", cfg.Headers)
	}
}

func TestLoadConfigFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	if err := os.WriteFile(path, []byte("message = \"hi\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfigFile(path, defaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Message != "hi" {
		t.Fatalf("unexpected message: %q", cfg.Message)
	}
	if cfg.Endpoint != defaultEndpoint {
		t.Fatalf("unexpected endpoint: %q", cfg.Endpoint)
	}
	if cfg.Hold != defaultHold {
		t.Fatalf("unexpected hold: %v", cfg.Hold)
	}
}

func TestLoadConfigFileRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("hold = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadConfigFile(path, defaultConfig()); err == nil {
		t.Fatalf("expected hold parse error")
	}
}

func TestResolveConfigFlagsWinOverFile(t *testing.T) {
	cmd := newCommand()
	var got demoConfig
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		var err error
		got, err = resolveConfig(c)
		return err
	}

	err := cmd.Run(context.Background(), []string{
		"wsdemo",
		"--config", "ex.config.toml",
		"--hold", "750ms",
		"--header", "X-Trace = abc",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got.Endpoint != "ws://127.0.0.1:9001/feed" {
		t.Fatalf("unexpected endpoint: %q", got.Endpoint)
	}
	if got.Hold != 750*time.Millisecond {
		t.Fatalf("unexpected hold: %v", got.Hold)
	}
	if got.Headers["X-Trace"] != "abc" || got.Headers["Authorization"] != "Bearer local-dev" {
		t.Fatalf("unexpected headers: %+v", got.Headers)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cmd := newCommand()
	var got demoConfig
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		var err error
		got, err = resolveConfig(c)
		return err
	}

	if err := cmd.Run(context.Background(), []string{"wsdemo"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Endpoint != "ws://localhost:8080" || got.Message != "Hello from Java!" || got.Hold != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestParseHeader(t *testing.T) {
	if _, _, err := parseHeader("novalue"); err == nil {
		t.Fatalf("expected error for header without '='")
	}
	if _, _, err := parseHeader("=value"); err == nil {
		t.Fatalf("expected error for header without key")
	}
	k, v, err := parseHeader("Key=a=b")
	if err != nil || k != "Key" || v != "a=b" {
		t.Fatalf("unexpected parse: %q %q %v", k, v, err)
	}
}
