package internal

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Scan.AssetDir != "Assets" || cfg.Scan.MetaExt != ".meta" {
		t.Errorf("scan defaults = %+v", cfg.Scan)
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth enabled by default")
	}
}

func TestAuthConfigValidate(t *testing.T) {
	c := AuthConfig{Mode: AuthModeToken}
	if err := c.Validate(); err == nil {
		t.Error("token mode without token must fail")
	}

	c = AuthConfig{Mode: AuthModeToken, Token: "secret"}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !c.AuthEnabled() {
		t.Error("expected auth enabled")
	}

	// Empty mode normalises to disabled.
	c = AuthConfig{}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if c.Mode != AuthModeDisabled || c.AuthEnabled() {
		t.Errorf("mode = %q", c.Mode)
	}
}

func TestProjectsConfigValidate(t *testing.T) {
	c := ProjectsConfig{Main: "/m"}
	if err := c.Validate(); err == nil {
		t.Error("missing subordinate must fail")
	}
	c = ProjectsConfig{Main: "/m", Subordinate: "/s"}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
