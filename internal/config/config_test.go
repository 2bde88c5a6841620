package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sifteo/cubeconnectord/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Radio.ListenAddr != ":4246" {
		t.Errorf("Radio.ListenAddr = %q, want %q", cfg.Radio.ListenAddr, ":4246")
	}
	if cfg.Radio.CubeAddr != "127.0.0.1:4248" {
		t.Errorf("Radio.CubeAddr = %q, want %q", cfg.Radio.CubeAddr, "127.0.0.1:4248")
	}
	if cfg.Radio.NeighborPeerAddr != "127.0.0.1:4249" {
		t.Errorf("Radio.NeighborPeerAddr = %q, want %q", cfg.Radio.NeighborPeerAddr, "127.0.0.1:4249")
	}
	if cfg.Store.Path != "cubeconnectord.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "cubeconnectord.db")
	}
	if cfg.Metrics.Addr != ":9101" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9101")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Protocol.TaskFlushInterval != 5*time.Second {
		t.Errorf("Protocol.TaskFlushInterval = %v, want %v", cfg.Protocol.TaskFlushInterval, 5*time.Second)
	}
	if cfg.Protocol.DisableReconnect {
		t.Error("Protocol.DisableReconnect should default to false")
	}

	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
radio:
  listen_addr: ":5000"
store:
  path: "/var/lib/cubeconnectord/pairings.db"
log:
  level: "debug"
  format: "text"
protocol:
  task_flush_interval: "1s"
  disable_reconnect: true
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Radio.ListenAddr != ":5000" {
		t.Errorf("Radio.ListenAddr = %q, want %q", cfg.Radio.ListenAddr, ":5000")
	}
	if cfg.Store.Path != "/var/lib/cubeconnectord/pairings.db" {
		t.Errorf("Store.Path = %q, want the overridden path", cfg.Store.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Protocol.TaskFlushInterval != 1*time.Second {
		t.Errorf("Protocol.TaskFlushInterval = %v, want %v", cfg.Protocol.TaskFlushInterval, 1*time.Second)
	}
	if !cfg.Protocol.DisableReconnect {
		t.Error("Protocol.DisableReconnect = false, want true")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override log.level. Everything else should
	// inherit from defaults.
	yamlContent := `
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.Radio.ListenAddr != ":4246" {
		t.Errorf("Radio.ListenAddr = %q, want default %q", cfg.Radio.ListenAddr, ":4246")
	}
	if cfg.Store.Path != "cubeconnectord.db" {
		t.Errorf("Store.Path = %q, want default %q", cfg.Store.Path, "cubeconnectord.db")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestLoadWithMissingPathStillAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Store.Path != "cubeconnectord.db" {
		t.Errorf("Store.Path = %q, want default %q", cfg.Store.Path, "cubeconnectord.db")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty radio listen addr",
			modify: func(cfg *config.Config) {
				cfg.Radio.ListenAddr = ""
			},
			wantErr: config.ErrEmptyRadioListenAddr,
		},
		{
			name: "empty store path",
			modify: func(cfg *config.Config) {
				cfg.Store.Path = ""
			},
			wantErr: config.ErrEmptyStorePath,
		},
		{
			name: "non-positive task flush interval",
			modify: func(cfg *config.Config) {
				cfg.Protocol.TaskFlushInterval = 0
			},
			wantErr: config.ErrInvalidTaskFlushInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			if err := config.Validate(cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "cubeconnectord.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
