// Package paths provides centralized path resolution for slatebar's config
// and runtime files.
//
// Layout (XDG-style):
//
//	Config:  ~/.config/slatebar/config.yaml  (override: SLATEBAR_CONFIG_DIR)
//	Runtime: $XDG_RUNTIME_DIR/slatebar/      (override: SLATEBAR_RUNTIME_DIR,
//	         fallback /tmp/slatebar-$UID)
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// EnvSocket carries the controller socket path to spawned panels.
const EnvSocket = "SLATEBAR_SOCKET"

var (
	configDirOnce   sync.Once
	configDirCached string

	runtimeDirOnce   sync.Once
	runtimeDirCached string
)

// ConfigDir resolves the config directory.
// Priority: SLATEBAR_CONFIG_DIR env > ~/.config/slatebar/
func ConfigDir() string {
	configDirOnce.Do(func() {
		if env := os.Getenv("SLATEBAR_CONFIG_DIR"); env != "" {
			configDirCached = env
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				configDirCached = "."
			} else {
				configDirCached = filepath.Join(home, ".config", "slatebar")
			}
		}
	})
	return configDirCached
}

// RuntimeDir resolves the runtime directory for sockets and pidfiles.
// Priority: SLATEBAR_RUNTIME_DIR env > $XDG_RUNTIME_DIR/slatebar > /tmp.
func RuntimeDir() string {
	runtimeDirOnce.Do(func() {
		if env := os.Getenv("SLATEBAR_RUNTIME_DIR"); env != "" {
			runtimeDirCached = env
		} else if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
			runtimeDirCached = filepath.Join(xdg, "slatebar")
		} else {
			runtimeDirCached = filepath.Join(os.TempDir(), fmt.Sprintf("slatebar-%d", os.Getuid()))
		}
	})
	return runtimeDirCached
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// SocketPath returns the controller socket path.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "controller.sock")
}

// PidPath returns the controller pidfile path.
func PidPath() string {
	return filepath.Join(RuntimeDir(), "controller.pid")
}

// EnsureRuntimeDir creates the runtime directory if it doesn't exist and
// returns its path.
func EnsureRuntimeDir() (string, error) {
	dir := RuntimeDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir %s: %w", dir, err)
	}
	return dir, nil
}

// ClaimPid enforces the single-controller rule: it fails if the pidfile
// names a live process, removes it when stale, and writes our pid.
func ClaimPid(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pid, err := strconv.Atoi(pidStr); err == nil && pid > 0 {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("controller already running with pid %d", pid)
				}
			}
		}
		// Stale pidfile, remove it
		os.Remove(path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// ReleasePid removes the pidfile.
func ReleasePid(path string) {
	os.Remove(path)
}

// ResetForTest clears cached directories so tests can change env overrides.
func ResetForTest() {
	configDirOnce = sync.Once{}
	configDirCached = ""
	runtimeDirOnce = sync.Once{}
	runtimeDirCached = ""
}
