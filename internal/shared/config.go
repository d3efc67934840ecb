package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Quota       QuotaConfig       `toml:"quota"`
	Engine      EngineConfig      `toml:"engine"`
	Songs       SongsConfig       `toml:"songs"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig contains YouTube Data API credentials and endpoint settings.
type YouTubeConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	APIKey       string `toml:"api_key"`
	TokenPath    string `toml:"token_path"`
	BaseURL      string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlaylistConfig names the target playlist and how it is created when missing.
type PlaylistConfig struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Privacy     string `toml:"privacy"`
}

// QuotaConfig is the remote service's cost schedule and the local daily budget.
//
// A zero budget means the remaining quota is unknown and only remote rejections stop a run.
type QuotaConfig struct {
	Budget     int `toml:"budget"`
	SearchCost int `toml:"search_cost"`
	MutateCost int `toml:"mutate_cost"`
	ReadCost   int `toml:"read_cost"`
}

// EngineConfig tunes the reconciliation engine.
type EngineConfig struct {
	SearchWorkers     int     `toml:"search_workers"`
	InsertWorkers     int     `toml:"insert_workers"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	PersistCache      bool    `toml:"persist_cache"`
	RequireSongs      bool    `toml:"require_songs"`
}

// SongsConfig points at the default song list.
type SongsConfig struct {
	Path string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Quota.Budget < 0:
		return fmt.Errorf("%w: quota.budget must not be negative", ErrInvalidConfig)
	case c.Quota.SearchCost < 0 || c.Quota.MutateCost < 0 || c.Quota.ReadCost < 0:
		return fmt.Errorf("%w: quota costs must not be negative", ErrInvalidConfig)
	case c.Engine.SearchWorkers < 0 || c.Engine.InsertWorkers < 0:
		return fmt.Errorf("%w: worker counts must not be negative", ErrInvalidConfig)
	case c.Engine.RequestsPerSecond < 0:
		return fmt.Errorf("%w: engine.requests_per_second must not be negative", ErrInvalidConfig)
	}

	switch c.Playlist.Privacy {
	case "", "public", "private", "unlisted":
	default:
		return fmt.Errorf("%w: playlist.privacy %q", ErrInvalidConfig, c.Playlist.Privacy)
	}
	return nil
}

// ApplyEnv layers credentials from a .env file and the process environment over the config.
//
// Existing OS variables win over .env values, matching [godotenv.Load]. A missing file is skipped unless
// required; a file that exists but cannot be parsed is always an error.
func (c *Config) ApplyEnv(required bool, files ...string) error {
	switch err := godotenv.Load(files...); {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		if required {
			return fmt.Errorf("%w: %v", ErrMissingConfig, err)
		}
	default:
		return fmt.Errorf("%w: env file: %v", ErrInvalidConfig, err)
	}

	if v := os.Getenv("YOUTUBE_CLIENT_ID"); v != "" {
		c.Credentials.YouTube.ClientID = v
	}
	if v := os.Getenv("YOUTUBE_CLIENT_SECRET"); v != "" {
		c.Credentials.YouTube.ClientSecret = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.Credentials.YouTube.APIKey = v
	}
	if v := os.Getenv("YOUTUBE_TOKEN_PATH"); v != "" {
		c.Credentials.YouTube.TokenPath = v
	}
	return nil
}
