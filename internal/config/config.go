// Package config loads the YAML configuration shared by the wangtile tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wangtile/internal/store"
	"github.com/lawnchairsociety/wangtile/internal/worldgen"
)

// Config is the top-level tool configuration.
type Config struct {
	// Tileset is the path of the tileset file (.yaml, .yml or .tsx).
	Tileset string `yaml:"tileset"`

	Grid     GridConfig      `yaml:"grid"`
	Resolver ResolverConfig  `yaml:"resolver"`
	Worldgen worldgen.Config `yaml:"worldgen"`

	// Brushes are painted after noise generation, in order.
	Brushes []worldgen.Rect `yaml:"brushes"`

	Preview  PreviewConfig `yaml:"preview"`
	Database store.Config  `yaml:"database"`
}

// GridConfig sizes the terrain grid in cells.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ResolverConfig holds autotile resolution settings.
type ResolverConfig struct {
	// Seed drives weighted variant selection. The same seed, tileset and
	// edit sequence reproduce the same map.
	Seed int64 `yaml:"seed"`

	// RecordWarnings stores fallback and unknown-tile warnings in the database.
	RecordWarnings bool `yaml:"record_warnings"`
}

// PreviewConfig holds preview server settings.
type PreviewConfig struct {
	Listen      string            `yaml:"listen"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	EditRate    EditRateConfig    `yaml:"edit_rate"`
}

// EditRateConfig throttles edit requests per viewer.
type EditRateConfig struct {
	Enabled bool `yaml:"enabled"`
	// MaxEdits allowed per viewer within WindowSeconds.
	MaxEdits      int `yaml:"max_edits"`
	WindowSeconds int `yaml:"window_seconds"`
}

// ConnectionsConfig holds connection limit settings. 0 means unlimited.
type ConnectionsConfig struct {
	MaxPerIP int `yaml:"max_per_ip"`
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() *Config {
	return &Config{
		Grid:     GridConfig{Width: 32, Height: 24},
		Resolver: ResolverConfig{Seed: 1},
		Worldgen: worldgen.DefaultConfig(1),
		Preview: PreviewConfig{
			Listen: "127.0.0.1:8765",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // same-origin only
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 4,
				MaxTotal: 64,
			},
			EditRate: EditRateConfig{
				Enabled:       true,
				MaxEdits:      20,
				WindowSeconds: 1,
			},
		},
		Database: store.DefaultConfig("data/wangtile.db"),
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, config.Validate()
}

// Validate reports settings no tool can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Grid.Width < 1 || c.Grid.Height < 1 {
		errs = append(errs, fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Grid.Width, c.Grid.Height))
	}
	if c.Preview.WebSocket.MaxMessageSize < 0 {
		errs = append(errs, errors.New("preview.websocket.max_message_size must not be negative"))
	}
	switch store.DialectType(c.Database.Driver) {
	case store.DialectSQLite, store.DialectPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // non-browser client
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
