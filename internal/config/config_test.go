//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/library/albums",
			expected: filepath.Join(home, "music", "library", "albums"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
		{
			name:     "tilde with slash",
			input:    "~/",
			expected: filepath.Join(home, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	// Should have at least one path
	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	// If we have home dir, first path should be ~/.config/drift/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "drift", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestHasLastfmConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name: "both APIKey and APISecret set",
			config: Config{
				Lastfm: LastfmConfig{
					APIKey:    "my-api-key",
					APISecret: "my-api-secret",
				},
			},
			expected: true,
		},
		{
			name: "only APIKey set",
			config: Config{
				Lastfm: LastfmConfig{
					APIKey: "my-api-key",
				},
			},
			expected: false,
		},
		{
			name: "only APISecret set",
			config: Config{
				Lastfm: LastfmConfig{
					APISecret: "my-api-secret",
				},
			},
			expected: false,
		},
		{
			name:     "neither set",
			config:   Config{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.HasLastfmConfig()
			if result != tt.expected {
				t.Errorf("HasLastfmConfig() = %v, want %v", result, tt.expected)
			}
		})
	}
}


func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestGetVolume(t *testing.T) {
	tests := []struct {
		name   string
		volume *int
		want   int
	}{
		{"unset", nil, 50},
		{"zero is kept", intPtr(0), 0},
		{"in range", intPtr(80), 80},
		{"above max", intPtr(150), 100},
		{"negative", intPtr(-5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{Volume: tt.volume}
			if got := c.GetVolume(); got != tt.want {
				t.Errorf("GetVolume() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	if got := (&Config{}).GetUserID(); got != "local" {
		t.Errorf("GetUserID() = %q, want %q", got, "local")
	}
	if got := (&Config{UserID: "alice"}).GetUserID(); got != "alice" {
		t.Errorf("GetUserID() = %q, want %q", got, "alice")
	}
}

func TestNotificationsEnabled(t *testing.T) {
	off, on := false, true
	tests := []struct {
		input *bool
		want  bool
	}{
		{nil, true},
		{&on, true},
		{&off, false},
	}
	for _, tt := range tests {
		if got := (&Config{Notifications: tt.input}).NotificationsEnabled(); got != tt.want {
			t.Errorf("NotificationsEnabled() = %v, want %v", got, tt.want)
		}
	}
}

func TestLoad_NotificationsOff(t *testing.T) {
	cfg, err := load([]string{writeConfig(t, "notifications = false\n")})
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.NotificationsEnabled() {
		t.Error("NotificationsEnabled() = true, want false")
	}
}

func TestGetAnalyzerConfig(t *testing.T) {
	tests := []struct {
		name          string
		input         AnalyzerConfig
		wantFFT       int
		wantFPS       int
		wantSmoothing float64
	}{
		{"defaults", AnalyzerConfig{}, 2048, 60, 0.8},
		{"custom", AnalyzerConfig{FFTSize: 1024, FPS: 30, Smoothing: floatPtr(0.5)}, 1024, 30, 0.5},
		{"zero smoothing kept", AnalyzerConfig{Smoothing: floatPtr(0)}, 2048, 60, 0},
		{"fft not power of two", AnalyzerConfig{FFTSize: 1000}, 2048, 60, 0.8},
		{"fft too small", AnalyzerConfig{FFTSize: 16}, 2048, 60, 0.8},
		{"fps out of range", AnalyzerConfig{FPS: 1000}, 2048, 60, 0.8},
		{"smoothing out of range", AnalyzerConfig{Smoothing: floatPtr(1)}, 2048, 60, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{Analyzer: tt.input}
			got := c.GetAnalyzerConfig()
			if got.FFTSize != tt.wantFFT {
				t.Errorf("FFTSize = %d, want %d", got.FFTSize, tt.wantFFT)
			}
			if got.FPS != tt.wantFPS {
				t.Errorf("FPS = %d, want %d", got.FPS, tt.wantFPS)
			}
			if *got.Smoothing != tt.wantSmoothing {
				t.Errorf("Smoothing = %v, want %v", *got.Smoothing, tt.wantSmoothing)
			}
		})
	}
}

func TestGetAutoplayConfig(t *testing.T) {
	tests := []struct {
		name      string
		input     AutoplayConfig
		wantSugg  string
		wantTTLHr int
	}{
		{"defaults", AutoplayConfig{}, SuggesterOllama, 24},
		{"lastfm", AutoplayConfig{Suggester: SuggesterLastfm, CacheTTLHours: 2}, SuggesterLastfm, 2},
		{"none", AutoplayConfig{Suggester: SuggesterNone}, SuggesterNone, 24},
		{"unknown suggester", AutoplayConfig{Suggester: "gemini"}, SuggesterOllama, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&Config{Autoplay: tt.input}).GetAutoplayConfig()
			if got.Suggester != tt.wantSugg {
				t.Errorf("Suggester = %q, want %q", got.Suggester, tt.wantSugg)
			}
			if got.CacheTTLHours != tt.wantTTLHr {
				t.Errorf("CacheTTLHours = %d, want %d", got.CacheTTLHours, tt.wantTTLHr)
			}
		})
	}
}

func TestGetSearchConfig(t *testing.T) {
	tests := []struct {
		name         string
		input        SearchConfig
		wantProvider string
		wantRegion   string
	}{
		{"defaults", SearchConfig{}, SearchYTMusic, "US"},
		{"youtube with key", SearchConfig{Provider: SearchYouTube, YouTubeAPIKey: "k", Region: "fr"}, SearchYouTube, "FR"},
		{"youtube without key", SearchConfig{Provider: SearchYouTube}, SearchYTMusic, "US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&Config{Search: tt.input}).GetSearchConfig()
			if got.Provider != tt.wantProvider {
				t.Errorf("Provider = %q, want %q", got.Provider, tt.wantProvider)
			}
			if got.Region != tt.wantRegion {
				t.Errorf("Region = %q, want %q", got.Region, tt.wantRegion)
			}
		})
	}
}

func TestGetStoreConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    StoreConfig
		wantKind string
	}{
		{"default", StoreConfig{}, StoreSQLite},
		{"memory", StoreConfig{Kind: StoreMemory}, StoreMemory},
		{"mongo with uri", StoreConfig{Kind: StoreMongo, MongoURI: "mongodb://localhost"}, StoreMongo},
		{"mongo without uri", StoreConfig{Kind: StoreMongo}, StoreSQLite},
		{"unknown", StoreConfig{Kind: "redis"}, StoreSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&Config{Store: tt.input}).GetStoreConfig()
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.MongoDatabase != "drift" {
				t.Errorf("MongoDatabase = %q, want %q", got.MongoDatabase, "drift")
			}
		})
	}
}

func TestGetEmbedConfig_Defaults(t *testing.T) {
	got := (&Config{}).GetEmbedConfig()
	if got.MPVPath != "mpv" {
		t.Errorf("MPVPath = %q, want %q", got.MPVPath, "mpv")
	}
	if got.SocketPath == "" {
		t.Error("SocketPath should default to a temp path")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	return path
}

func TestLoad_EmptyConfig(t *testing.T) {
	cfg, err := load([]string{writeConfig(t, "")})
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.GetVolume() != 50 {
		t.Errorf("GetVolume() = %d, want 50", cfg.GetVolume())
	}
	if cfg.GetStoreConfig().Kind != StoreSQLite {
		t.Errorf("Store.Kind = %q, want %q", cfg.GetStoreConfig().Kind, StoreSQLite)
	}
}

func TestLoad_MissingFilesIgnored(t *testing.T) {
	cfg, err := load([]string{filepath.Join(t.TempDir(), "absent.toml")})
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("load() returned nil config")
	}
}

func TestLoad_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
volume = 70
user_id = "alice"

[analyzer]
fft_size = 4096
smoothing = 0.6

[autoplay]
suggester = "LastFM"

[ollama]
host = "http://gpu-box:11434/"

[search]
provider = "youtube"
youtube_api_key = "yt-key"

[store]
kind = "mongo"
mongo_uri = "mongodb://db:27017"
path = "~/drift/state.db"
`)
	cfg, err := load([]string{path})
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.GetVolume() != 70 {
		t.Errorf("GetVolume() = %d, want 70", cfg.GetVolume())
	}
	if cfg.GetUserID() != "alice" {
		t.Errorf("GetUserID() = %q, want %q", cfg.GetUserID(), "alice")
	}
	if got := cfg.GetAnalyzerConfig(); got.FFTSize != 4096 || *got.Smoothing != 0.6 {
		t.Errorf("GetAnalyzerConfig() = %d/%v, want 4096/0.6", got.FFTSize, *got.Smoothing)
	}
	if got := cfg.GetAutoplayConfig().Suggester; got != SuggesterLastfm {
		t.Errorf("Suggester = %q, want %q", got, SuggesterLastfm)
	}
	if cfg.Ollama.Host != "http://gpu-box:11434" {
		t.Errorf("Ollama.Host = %q, want trailing slash removed", cfg.Ollama.Host)
	}
	if got := cfg.GetSearchConfig().Provider; got != SearchYouTube {
		t.Errorf("Search.Provider = %q, want %q", got, SearchYouTube)
	}
	if got := cfg.GetStoreConfig().Kind; got != StoreMongo {
		t.Errorf("Store.Kind = %q, want %q", got, StoreMongo)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "drift", "state.db"); cfg.Store.Path != want {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, want)
	}
}

func TestLoad_LastFileWins(t *testing.T) {
	first := writeConfig(t, "volume = 10\nuser_id = \"first\"\n")
	second := writeConfig(t, "volume = 90\n")

	cfg, err := load([]string{first, second})
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.GetVolume() != 90 {
		t.Errorf("GetVolume() = %d, want 90", cfg.GetVolume())
	}
	if cfg.GetUserID() != "first" {
		t.Errorf("GetUserID() = %q, want %q", cfg.GetUserID(), "first")
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	if _, err := load([]string{writeConfig(t, "invalid = [[[")}); err == nil {
		t.Error("load() expected error for invalid TOML, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "[lastfm]\napi_key = \"k\"\napi_secret = \"s\"\n"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !cfg.HasLastfmConfig() {
		t.Error("HasLastfmConfig() = false, want true")
	}
}
