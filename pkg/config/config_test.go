package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
socket: /tmp/slatebar.sock
retry_timeout: 10s
spacing: 2
modules:
  left:
    - workspaces
  right:
    - name: clock
      options:
        format: "15:04"
    - audio
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Socket != "/tmp/slatebar.sock" {
		t.Errorf("Socket = %q", cfg.Socket)
	}
	if cfg.RetryTimeout.Std() != 10*time.Second {
		t.Errorf("RetryTimeout = %s", cfg.RetryTimeout.Std())
	}
	if cfg.Spacing != 2 {
		t.Errorf("Spacing = %d", cfg.Spacing)
	}
	if len(cfg.Modules.Left) != 1 || cfg.Modules.Left[0].Name != "workspaces" {
		t.Errorf("Left = %+v", cfg.Modules.Left)
	}
	if len(cfg.Modules.Right) != 2 {
		t.Fatalf("Right = %+v", cfg.Modules.Right)
	}
	if cfg.Modules.Right[0].Options["format"] != "15:04" {
		t.Errorf("clock options = %+v", cfg.Modules.Right[0].Options)
	}
	if cfg.Modules.Right[1].Name != "audio" {
		t.Errorf("bare module name not accepted: %+v", cfg.Modules.Right[1])
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RetryTimeout.Std() != 5*time.Second {
		t.Errorf("default RetryTimeout = %s", cfg.RetryTimeout.Std())
	}
	if cfg.Spacing != 1 {
		t.Errorf("default Spacing = %d", cfg.Spacing)
	}
	if cfg.PanelCommand != "slatebar-panel" {
		t.Errorf("default PanelCommand = %q", cfg.PanelCommand)
	}
	if len(cfg.Modules.Right) == 0 {
		t.Error("defaults must include right modules")
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "modules: [")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
