package paths

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func setupTestDirs(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("SLATEBAR_CONFIG_DIR", "")
	t.Setenv("SLATEBAR_RUNTIME_DIR", "")
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("HOME", tmp)
	ResetForTest()
	t.Cleanup(ResetForTest)
	return tmp
}

func TestConfigDir_EnvOverride(t *testing.T) {
	tmp := setupTestDirs(t)
	override := filepath.Join(tmp, "custom-config")
	os.MkdirAll(override, 0o755)
	t.Setenv("SLATEBAR_CONFIG_DIR", override)
	ResetForTest()

	if got := ConfigDir(); got != override {
		t.Errorf("ConfigDir() = %q, want %q", got, override)
	}
}

func TestConfigDir_Default(t *testing.T) {
	tmp := setupTestDirs(t)
	want := filepath.Join(tmp, ".config", "slatebar")
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestRuntimeDir_XDG(t *testing.T) {
	tmp := setupTestDirs(t)
	t.Setenv("XDG_RUNTIME_DIR", tmp)
	ResetForTest()

	want := filepath.Join(tmp, "slatebar")
	if got := RuntimeDir(); got != want {
		t.Errorf("RuntimeDir() = %q, want %q", got, want)
	}
	if got := SocketPath(); got != filepath.Join(want, "controller.sock") {
		t.Errorf("SocketPath() = %q", got)
	}
}

func TestClaimPid(t *testing.T) {
	setupTestDirs(t)
	path := filepath.Join(t.TempDir(), "controller.pid")

	if err := ClaimPid(path); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := strconv.Atoi(string(data)); got != os.Getpid() {
		t.Errorf("pidfile holds %q, want our pid", data)
	}

	// Our own live pid blocks a second claim.
	if err := ClaimPid(path); err == nil {
		t.Fatal("claim against a live controller must fail")
	}

	// A stale pid is evicted.
	if err := os.WriteFile(path, []byte("999999"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ClaimPid(path); err != nil {
		t.Fatalf("claim over stale pidfile: %v", err)
	}

	ReleasePid(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ReleasePid must remove the pidfile")
	}
}
