package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testCfg struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CFG_NAME", "expanded")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("name: ${TEST_CFG_NAME}\nport: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testCfg
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "expanded" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testCfg
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadIfPresent_MissingFileIsNoOp(t *testing.T) {
	cfg := testCfg{Name: "defaults", Port: 8080}
	if err := LoadIfPresent(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("LoadIfPresent: %v", err)
	}
	if cfg.Name != "defaults" || cfg.Port != 8080 {
		t.Errorf("cfg modified: %+v", cfg)
	}
}

type failingCfg struct {
	Port int `yaml:"port"`
}

var errBadPort = errors.New("bad port")

func (c *failingCfg) Validate() error {
	if c.Port <= 0 {
		return errBadPort
	}
	return nil
}

func TestLoad_ValidatorEnforced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg failingCfg
	if err := Load(path, &cfg); !errors.Is(err, errBadPort) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}
