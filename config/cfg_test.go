package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Import.Dangling != DanglingPolicyKeep {
		t.Errorf("Default dangling policy = %s, want keep", cfg.Import.Dangling)
	}
	if cfg.Copy.Suffix != "_copy" {
		t.Errorf("Default copy suffix = %q, want _copy", cfg.Copy.Suffix)
	}
	if !strings.Contains(cfg.Import.DummyKeyTemplate, "{{ .Uniq }}") {
		t.Errorf("Dummy key template was expanded: %q", cfg.Import.DummyKeyTemplate)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
store:
  path: `+filepath.Join(dir, "data.db")+`
import:
  user_id: 7
  dangling: strip
copy:
  suffix: "-copy"
  tags: true
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Import.UserID != 7 || cfg.Import.Dangling != DanglingPolicyStrip {
		t.Errorf("Import = %+v", cfg.Import)
	}
	if cfg.Copy.Suffix != "-copy" || !cfg.Copy.Tags {
		t.Errorf("Copy = %+v", cfg.Copy)
	}
	if !strings.Contains(cfg.Import.DummyKeyTemplate, ".Counter") {
		t.Errorf("DummyKeyTemplate lost default value: %q", cfg.Import.DummyKeyTemplate)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("Console level = %s, want debug", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nstore:\n  path: x\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad policy", "version: 1\nimport:\n  dangling: sometimes\n"},
		{"no user", "version: 1\nimport:\n  user_id: 0\n"},
		{"bad suffix", "version: 1\ncopy:\n  suffix: a/b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfiguration() expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadConfiguration() expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Prepared config is not valid: %v", err)
	}

	cfg.Import.Dangling = DanglingPolicyFail
	data, err = Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "dangling: fail") {
		t.Errorf("Dump() = %s", data)
	}

	back, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if back.Import.Dangling != DanglingPolicyFail || back.Store.Path != cfg.Store.Path {
		t.Errorf("Dump/load mismatch: %+v", back.Import)
	}
}

func TestParseDanglingPolicy(t *testing.T) {
	for _, name := range []string{"keep", "STRIP", "Fail"} {
		if _, err := ParseDanglingPolicy(name); err != nil {
			t.Errorf("ParseDanglingPolicy(%s) error = %v", name, err)
		}
	}
	if _, err := ParseDanglingPolicy("maybe"); err == nil {
		t.Error("ParseDanglingPolicy() expected error")
	}
}
