package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/condlock/internal/configs"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
)

func TestConfigInit(t *testing.T) {
	t.Run("WritesDefaults", func(t *testing.T) {
		dir := setupTestEnvironment(t, nil)
		path := filepath.Join(dir, "config", "condlock", "config.toml")

		output, err := runCLI(t, "config", "init", "--quorum", "3")
		if err != nil {
			t.Fatalf("config init failed: %v\nOutput: %s", err, output)
		}
		if !strings.Contains(output, "Configuration written to") {
			t.Errorf("Expected confirmation in output: %s", output)
		}

		cfg, err := configs.Load(path)
		if err != nil {
			t.Fatalf("Failed to load written config: %v", err)
		}
		if cfg.Oracle.Quorum != 3 {
			t.Errorf("Quorum = %d, want 3", cfg.Oracle.Quorum)
		}
		if cfg.Server.Listen != configs.Default().Server.Listen {
			t.Errorf("Listen = %q, want the default", cfg.Server.Listen)
		}
	})

	t.Run("KeepsExistingWithoutForce", func(t *testing.T) {
		dir := setupTestEnvironment(t, nil)
		path := filepath.Join(dir, "custom.toml")
		if err := os.WriteFile(path, []byte("[oracle]\nquorum = 3\n"), 0600); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		output, err := runCLI(t, "config", "init", "--config", path)
		if err != nil {
			t.Fatalf("config init failed: %v", err)
		}
		if !strings.Contains(output, "already exists") {
			t.Errorf("Expected existing-config warning: %s", output)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "[oracle]\nquorum = 3\n" {
			t.Errorf("Existing config was modified: %s", data)
		}

		if _, err := runCLI(t, "config", "init", "--config", path, "--force"); err != nil {
			t.Fatalf("config init --force failed: %v", err)
		}
		cfg, err := configs.Load(path)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Oracle.Quorum != 2 {
			t.Errorf("Quorum = %d, want 2 after --force", cfg.Oracle.Quorum)
		}
	})

	t.Run("RejectsInvalidQuorum", func(t *testing.T) {
		setupTestEnvironment(t, nil)

		_, err := runCLI(t, "config", "init", "--quorum", "-1")
		if !errors.Is(err, kerrors.ErrConfigInvalid) {
			t.Errorf("Expected ErrConfigInvalid, got %v", err)
		}
	})
}

func TestConfigShow(t *testing.T) {
	dir := setupTestEnvironment(t, nil)

	output, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"defaults", "[oracle]", "quorum = 2", `source_timeout = "8s"`, "[server]"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output: %s", want, output)
		}
	}

	output, err = runCLI(t, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show --json failed: %v", err)
	}
	if !strings.Contains(output, `"SourceTimeout": "8s"`) {
		t.Errorf("Expected durations as strings in JSON: %s", output)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[oracle]\nquorom = 2\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	output, err = runCLI(t, "config", "show", "--config", bad)
	if !errors.Is(err, kerrors.ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid for unknown keys, got %v", err)
	}
	if !strings.Contains(output, "quorom") {
		t.Errorf("Expected the unknown key to be named: %s", output)
	}
}

func TestNoteCommands_UseConfigFile(t *testing.T) {
	dir := setupTestEnvironment(t, nil)
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[oracle]\nquorum = 0\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := runCLI(t, "note", "encrypt", "--config", bad, "--note", "x", "--unlock-at", "+1h")
	if !errors.Is(err, kerrors.ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid, got %v", err)
	}
}
