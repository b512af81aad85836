package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Volume        *int   `koanf:"volume"`        // initial volume 0-100 (default: 50)
	UserID        string `koanf:"user_id"`       // key of the user document (default: "local")
	Notifications *bool  `koanf:"notifications"` // desktop track notifications (default: true)

	Analyzer AnalyzerConfig `koanf:"analyzer"`

	// Remote player for streaming sources
	Embed EmbedConfig `koanf:"embed"`

	// Next-track resolution when the queue runs out
	Autoplay AutoplayConfig `koanf:"autoplay"`
	Ollama   OllamaConfig   `koanf:"ollama"`

	// Last.fm scrobbling and similar-track suggestions
	Lastfm LastfmConfig `koanf:"lastfm"`

	Search SearchConfig `koanf:"search"`

	// Where playlists, likes, history and queue are kept
	Store StoreConfig `koanf:"store"`
}

// AnalyzerConfig holds spectrum analysis settings.
type AnalyzerConfig struct {
	FFTSize   int      `koanf:"fft_size"`  // power of two (default: 2048)
	FPS       int      `koanf:"fps"`       // snapshots per second (default: 60)
	Smoothing *float64 `koanf:"smoothing"` // 0.0-1.0 (default: 0.8)
}

// EmbedConfig holds the mpv remote player settings.
type EmbedConfig struct {
	MPVPath    string `koanf:"mpv_path"`    // default: "mpv"
	SocketPath string `koanf:"socket_path"` // IPC socket (default: in temp dir)
	YTDLFormat string `koanf:"ytdl_format"` // e.g. "bestaudio"
}

// AutoplayConfig holds autoplay resolution settings.
type AutoplayConfig struct {
	Suggester     string `koanf:"suggester"`       // "ollama", "lastfm" or "none" (default: "ollama")
	CacheTTLHours int    `koanf:"cache_ttl_hours"` // search cache TTL (default: 24)
}

// OllamaConfig holds the LLM suggestion provider settings.
type OllamaConfig struct {
	Host  string `koanf:"host"`  // empty means OLLAMA_HOST or the local default
	Model string `koanf:"model"` // default: "llama3.1:8b"
}

// LastfmConfig holds Last.fm API credentials.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

// SearchConfig selects the track search provider.
type SearchConfig struct {
	Provider      string `koanf:"provider"`        // "ytmusic" or "youtube" (default: "ytmusic")
	YouTubeAPIKey string `koanf:"youtube_api_key"` // required for "youtube" and trending
	Region        string `koanf:"region"`          // trending region code (default: "US")
}

// StoreConfig selects the user document store.
type StoreConfig struct {
	Kind          string `koanf:"kind"`           // "sqlite", "mongo" or "memory" (default: "sqlite")
	Path          string `koanf:"path"`           // SQLite file (default: XDG data dir)
	MongoURI      string `koanf:"mongo_uri"`      // e.g. "mongodb://localhost:27017"
	MongoDatabase string `koanf:"mongo_database"` // default: "drift"
}

const (
	SuggesterOllama = "ollama"
	SuggesterLastfm = "lastfm"
	SuggesterNone   = "none"

	SearchYTMusic = "ytmusic"
	SearchYouTube = "youtube"

	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Load reads the user config then ./config.toml, the latter winning.
func Load() (*Config, error) {
	return load(getConfigPaths())
}

// LoadFile reads a single config file.
func LoadFile(path string) (*Config, error) {
	return load([]string{expandPath(path)})
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Autoplay.Suggester = strings.ToLower(strings.TrimSpace(cfg.Autoplay.Suggester))
	cfg.Search.Provider = strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	cfg.Store.Kind = strings.ToLower(strings.TrimSpace(cfg.Store.Kind))

	if cfg.Store.Path != "" {
		cfg.Store.Path = expandPath(cfg.Store.Path)
	}
	if cfg.Embed.SocketPath != "" {
		cfg.Embed.SocketPath = expandPath(cfg.Embed.SocketPath)
	}
	cfg.Ollama.Host = strings.TrimSuffix(cfg.Ollama.Host, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/drift/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "drift", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetVolume returns the initial volume clamped to 0-100.
func (c *Config) GetVolume() int {
	if c.Volume == nil {
		return 50
	}
	return min(max(*c.Volume, 0), 100)
}

// GetUserID returns the user document key.
func (c *Config) GetUserID() string {
	if c.UserID == "" {
		return "local"
	}
	return c.UserID
}

// NotificationsEnabled reports whether track changes post desktop
// notifications.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications == nil || *c.Notifications
}

// HasLastfmConfig returns true if Last.fm API credentials are configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// GetAnalyzerConfig returns the analyzer configuration with defaults applied.
func (c *Config) GetAnalyzerConfig() AnalyzerConfig {
	cfg := c.Analyzer

	if cfg.FFTSize < 32 || cfg.FFTSize > 32768 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		cfg.FFTSize = 2048
	}
	if cfg.FPS <= 0 || cfg.FPS > 240 {
		cfg.FPS = 60
	}
	if cfg.Smoothing == nil || *cfg.Smoothing < 0 || *cfg.Smoothing >= 1 {
		s := 0.8
		cfg.Smoothing = &s
	}

	return cfg
}

// GetEmbedConfig returns the remote player configuration with defaults applied.
func (c *Config) GetEmbedConfig() EmbedConfig {
	cfg := c.Embed
	if cfg.MPVPath == "" {
		cfg.MPVPath = "mpv"
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = filepath.Join(os.TempDir(), "drift-mpv.sock")
	}
	return cfg
}

// GetAutoplayConfig returns the autoplay configuration with defaults applied.
func (c *Config) GetAutoplayConfig() AutoplayConfig {
	cfg := c.Autoplay
	switch cfg.Suggester {
	case SuggesterOllama, SuggesterLastfm, SuggesterNone:
	default:
		cfg.Suggester = SuggesterOllama
	}
	if cfg.CacheTTLHours <= 0 {
		cfg.CacheTTLHours = 24
	}
	return cfg
}

// GetOllamaConfig returns the Ollama configuration with defaults applied.
func (c *Config) GetOllamaConfig() OllamaConfig {
	cfg := c.Ollama
	if cfg.Model == "" {
		cfg.Model = "llama3.1:8b"
	}
	return cfg
}

// GetSearchConfig returns the search configuration with defaults applied.
// Asking for YouTube without an API key falls back to YouTube Music.
func (c *Config) GetSearchConfig() SearchConfig {
	cfg := c.Search
	if cfg.Provider != SearchYouTube || cfg.YouTubeAPIKey == "" {
		cfg.Provider = SearchYTMusic
	}
	if cfg.Region == "" {
		cfg.Region = "US"
	}
	cfg.Region = strings.ToUpper(cfg.Region)
	return cfg
}

// GetStoreConfig returns the store configuration with defaults applied.
// An empty Path means the XDG data file chosen by the store itself.
func (c *Config) GetStoreConfig() StoreConfig {
	cfg := c.Store
	switch cfg.Kind {
	case StoreSQLite, StoreMemory:
	case StoreMongo:
		if cfg.MongoURI == "" {
			cfg.Kind = StoreSQLite
		}
	default:
		cfg.Kind = StoreSQLite
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "drift"
	}
	return cfg
}
