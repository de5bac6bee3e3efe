package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Drafts      DraftsConfig      `yaml:"drafts"`
	Editor      EditorConfig      `yaml:"editor"`
	Sessions    SessionsConfig    `yaml:"sessions"`
	RenderCache RenderCacheConfig `yaml:"render_cache"`
	Auth        AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, section := range []validation.Validatable{
		&c.App, &c.SQLite, &c.Drafts, &c.Editor, &c.Sessions, &c.RenderCache, &c.Auth,
	} {
		if err := section.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile, when set, receives a rotated copy of the log stream.
	LogFile string     `yaml:"log_file"`
	HTTP    HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
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

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DraftsConfig points at a directory of Markdown drafts imported into the
// store. An empty Path disables the import.
type DraftsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the drafts configuration.
func (c *DraftsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Watch, validation.Required.Error("is required when watch is enabled"))),
	)
}

// EditorConfig tunes editing sessions and HTML output.
type EditorConfig struct {
	HistoryDepth int  `yaml:"history_depth"`
	SanitizeHTML bool `yaml:"sanitize_html"`
	MinifyHTML   bool `yaml:"minify_html"`
	Highlight    bool `yaml:"highlight"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HistoryDepth, validation.Required, validation.Min(1), validation.Max(10000)),
	)
}

// SessionsConfig controls how long idle editing sessions are kept.
type SessionsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Validate validates the sessions configuration.
func (c *SessionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CleanupInterval, validation.Required, validation.Min(time.Second)),
	)
}

// RenderCacheConfig controls the rendered HTML cache. A zero TTL disables it.
type RenderCacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Validate validates the render cache configuration.
func (c *RenderCacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
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
		SQLite: SQLiteConfig{
			Path: "./scribe.db",
		},
		Drafts: DraftsConfig{
			Path:  "./drafts",
			Watch: true,
		},
		Editor: EditorConfig{
			HistoryDepth: 100,
			SanitizeHTML: true,
			Highlight:    true,
		},
		Sessions: SessionsConfig{
			TTL:             30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		RenderCache: RenderCacheConfig{
			TTL: 10 * time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
