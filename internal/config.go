package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Projects ProjectsConfig    `yaml:"projects"`
	Scan     ScanConfig        `yaml:"scan"`
	History  HistoryConfig     `yaml:"history"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds serve-mode HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ProjectsConfig names the two trees that serve mode continuously compares.
// Main GUIDs are authoritative; subordinate GUIDs are the ones rewritten.
// CLI commands take the roots from flags instead and leave this empty.
type ProjectsConfig struct {
	Main        string `yaml:"main"`
	Subordinate string `yaml:"subordinate"`
}

// Validate checks that both roots are set (serve mode only).
func (c *ProjectsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Main, validation.Required),
		validation.Field(&c.Subordinate, validation.Required),
	)
}

// ScanConfig controls how project trees are crawled.
type ScanConfig struct {
	// AssetDir is the directory under a project root that holds assets.
	// A root that already names this directory is used as-is.
	AssetDir string `yaml:"asset_dir"`
	// MetaExt is the metadata companion suffix.
	MetaExt string `yaml:"meta_ext"`
	// IgnoreDirs are directory names skipped entirely during the crawl.
	IgnoreDirs []string `yaml:"ignore_dirs"`
	// Workers bounds per-tree extraction parallelism; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// ReportUnmatched lists assets that exist only in the subordinate tree
	// in scan output. They are never an error either way.
	ReportUnmatched bool `yaml:"report_unmatched"`
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AssetDir, validation.Required),
		validation.Field(&c.MetaExt, validation.Required),
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// HistoryConfig holds the serve-mode scan history database location.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds serve-mode authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Scan: ScanConfig{
			AssetDir:        "Assets",
			MetaExt:         ".meta",
			IgnoreDirs:      []string{"Library", "Temp", ".git"},
			ReportUnmatched: true,
		},
		History: HistoryConfig{
			Path: "./guidsync.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
