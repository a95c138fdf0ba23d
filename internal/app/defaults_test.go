package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("VAUL_CONFIG_PATH", "/custom/vaul.toml")
	t.Setenv("VAUL_HOME", "/custom/vaul-home")

	defaults, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults() error = %v", err)
	}

	if defaults["config_path"] != "/custom/vaul.toml" {
		t.Errorf("config_path = %q, want env override", defaults["config_path"])
	}
	if defaults["base_dir"] != "/custom/vaul-home" {
		t.Errorf("base_dir = %q, want env override", defaults["base_dir"])
	}
	if defaults["log_dir"] != "/custom/vaul-home/log" {
		t.Errorf("log_dir = %q, want base_dir/log", defaults["log_dir"])
	}
}

func TestGetDefaults_HomeFallback(t *testing.T) {
	t.Setenv("VAUL_CONFIG_PATH", "")
	t.Setenv("VAUL_HOME", "")
	t.Setenv("HOME", "/home/tester")

	defaults, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults() error = %v", err)
	}

	if want := filepath.Join("/home/tester", ".config", "vaul.toml"); defaults["config_path"] != want {
		t.Errorf("config_path = %q, want %q", defaults["config_path"], want)
	}
	if want := filepath.Join("/home/tester", ".local", "share", "vaul"); defaults["base_dir"] != want {
		t.Errorf("base_dir = %q, want %q", defaults["base_dir"], want)
	}
}
