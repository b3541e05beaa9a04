// Package config handles galleria configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for galleria.
type Config struct {
	// Server settings for the gallery backend
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Gallery loading settings
	Gallery GalleryConfig `yaml:"gallery" mapstructure:"gallery"`

	// Viewer settings
	Viewer ViewerConfig `yaml:"viewer" mapstructure:"viewer"`

	// Storage settings for client-side state
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// ServerConfig describes how to reach the gallery backend.
type ServerConfig struct {
	// URL is the backend API base, including its prefix (default: http://localhost:8000/api).
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout bounds each request. Zero disables the client-side timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Token is an optional bearer token for a reverse proxy in front of the backend.
	Token string `yaml:"token" mapstructure:"token"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// GalleryConfig contains gallery pagination settings.
type GalleryConfig struct {
	// FirstPageSize is the size of the page that unblocks rendering.
	FirstPageSize int `yaml:"first_page_size" mapstructure:"first_page_size"`

	// PageSize is the size of each background page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// Contiguous aligns background pages to PageSize offsets so that no
	// server rows are skipped when the two sizes differ.
	Contiguous bool `yaml:"contiguous" mapstructure:"contiguous"`
}

// ViewerConfig contains lightbox settings.
type ViewerConfig struct {
	// NoticeDuration is how long a mode-change notice stays on screen.
	NoticeDuration time.Duration `yaml:"notice_duration" mapstructure:"notice_duration"`
}

// StorageConfig contains client-side persistence settings.
type StorageConfig struct {
	// StateDir holds the local state database and TUI log (default: ~/.local/share/galleria).
	StateDir string `yaml:"state_dir" mapstructure:"state_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ThumbnailSize is the size hint used for grid links (small, medium, large).
	ThumbnailSize string `yaml:"thumbnail_size" mapstructure:"thumbnail_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:8000/api",
			Timeout: 30 * time.Second,
		},
		Gallery: GalleryConfig{
			FirstPageSize: 30,
			PageSize:      60,
			Contiguous:    false,
		},
		Viewer: ViewerConfig{
			NoticeDuration: 2 * time.Second,
		},
		Storage: StorageConfig{
			StateDir: filepath.Join(homeDir, ".local", "share", "galleria"),
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			Theme:         "default",
			ThumbnailSize: "medium",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	raw := strings.TrimSpace(c.Server.URL)
	if raw == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}

	// The backend caps page_size at 240.
	if c.Gallery.FirstPageSize < 1 || c.Gallery.FirstPageSize > 240 {
		return fmt.Errorf("gallery.first_page_size must be between 1 and 240")
	}
	if c.Gallery.PageSize < 1 || c.Gallery.PageSize > 240 {
		return fmt.Errorf("gallery.page_size must be between 1 and 240")
	}

	if c.Viewer.NoticeDuration <= 0 {
		return fmt.Errorf("viewer.notice_duration must be positive")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be one of default, high-contrast")
	}
	switch c.TUI.ThumbnailSize {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("tui.thumbnail_size must be one of small, medium, large")
	}

	if strings.TrimSpace(c.Storage.StateDir) == "" {
		return fmt.Errorf("storage.state_dir is required")
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.StateDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.StateDir, err)
	}
	return nil
}

// DatabasePath returns the local state database path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.StateDir, "galleria.db")
}

// TUILogPath returns the log file used while the TUI owns the terminal.
func (c *Config) TUILogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Storage.StateDir, "galleria.log")
}

// SessionPath returns the path of the persisted TUI session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Storage.StateDir, "session.yaml")
}
