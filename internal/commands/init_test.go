package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
)

func TestInit_WritesStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fileferry.toml")
	var out strings.Builder

	if err := Init(ferryfs.NewRealFS(), path, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "[files]") || !strings.Contains(string(data), "[api]") {
		t.Error("starter config missing expected sections")
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("stdout should mention the written path: %q", out.String())
	}
}

func TestInit_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fileferry.toml")
	if err := os.WriteFile(path, []byte("# precious edits\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	err := Init(ferryfs.NewRealFS(), path, &out)
	if errors.GetCode(err) != errors.EUsage {
		t.Fatalf("code = %s, want E_USAGE", errors.GetCode(err))
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# precious edits\n" {
		t.Error("existing config was overwritten")
	}
}
