// Package config loads versemem configuration from defaults, an optional
// YAML file and VERSEMEM_* environment variables, and hot-reloads the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/versemem/core/books"
	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/matcher"
)

// EnvPrefix prefixes every environment override, e.g.
// VERSEMEM_MATCHING_TOLERANCE_LEVEL.
const EnvPrefix = "VERSEMEM"

// Config is the full application configuration.
type Config struct {
	DataDir         string         `mapstructure:"data_dir" yaml:"data_dir"`
	CacheSize       int            `mapstructure:"cache_size" yaml:"cache_size"`
	DisplayLanguage string         `mapstructure:"display_language" yaml:"display_language"`
	Log             LogConfig      `mapstructure:"log" yaml:"log"`
	Matching        MatchingConfig `mapstructure:"matching" yaml:"matching"`
	Sources         SourcesConfig  `mapstructure:"sources" yaml:"sources"`
	Fetch           FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Testaments      TestamentsConf `mapstructure:"testaments" yaml:"testaments"`
	API             APIConfig      `mapstructure:"api" yaml:"api"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MatchingConfig holds answer-checking thresholds. LineTolerance applies to
// each line in line-by-line practice.
type MatchingConfig struct {
	ToleranceLevel      float64 `mapstructure:"tolerance_level" yaml:"tolerance_level"`
	LineTolerance       float64 `mapstructure:"line_tolerance" yaml:"line_tolerance"`
	AllowCharacterSwaps bool    `mapstructure:"allow_character_swaps" yaml:"allow_character_swaps"`
	AllowSimilarChars   bool    `mapstructure:"allow_similar_chars" yaml:"allow_similar_chars"`
	WordsPerLine        int     `mapstructure:"words_per_line" yaml:"words_per_line"`
}

// SourcesConfig locates raw source texts. Every default translation code
// resolves to BaseURL/<code>.txt unless URLs overrides it; URLs may also add
// codes. Dir, when set, is searched for <code>.txt before the network.
type SourcesConfig struct {
	BaseURL string            `mapstructure:"base_url" yaml:"base_url"`
	URLs    map[string]string `mapstructure:"urls" yaml:"urls"`
	Dir     string            `mapstructure:"dir" yaml:"dir"`
}

type FetchConfig struct {
	Attempts uint          `mapstructure:"attempts" yaml:"attempts"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MinBytes int           `mapstructure:"min_bytes" yaml:"min_bytes"`
}

// TestamentsConf extends the built-in New Testament key stems.
type TestamentsConf struct {
	NewTestamentStems []string `mapstructure:"new_testament_stems" yaml:"new_testament_stems"`
}

// APIConfig configures `versemem serve`. An empty APIKey disables
// authentication; a zero RateLimit disables rate limiting.
type APIConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	APIKey         string   `mapstructure:"api_key" yaml:"api_key"`
	RateLimit      int      `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per minute per IP
	RateBurst      int      `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// DefaultBaseURL hosts the plain-text translations.
const DefaultBaseURL = "https://raw.githubusercontent.com/ChefTim0/bible4u/refs/heads/main"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	dataDir := ".versemem"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".versemem")
	}

	return Config{
		DataDir:         dataDir,
		DisplayLanguage: string(books.English),
		Log:             LogConfig{Level: "info", Format: "json"},
		Matching: MatchingConfig{
			ToleranceLevel:      matcher.DefaultToleranceLevel,
			LineTolerance:       0.80,
			AllowCharacterSwaps: true,
			AllowSimilarChars:   true,
			WordsPerLine:        matcher.DefaultWordsPerLine,
		},
		Sources: SourcesConfig{BaseURL: DefaultBaseURL, URLs: map[string]string{}},
		Fetch: FetchConfig{
			Attempts: 3,
			Delay:    time.Second,
			Timeout:  30 * time.Second,
			MinBytes: 1000,
		},
		API: APIConfig{Port: 8080, RateLimit: 120, RateBurst: 20},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Matching.ToleranceLevel <= 0 || c.Matching.ToleranceLevel > 1:
		return verrors.NewValidation("matching.tolerance_level", "must be in (0, 1]")
	case c.Matching.LineTolerance <= 0 || c.Matching.LineTolerance > 1:
		return verrors.NewValidation("matching.line_tolerance", "must be in (0, 1]")
	case c.Matching.WordsPerLine < 1:
		return verrors.NewValidation("matching.words_per_line", "must be at least 1")
	case c.CacheSize < 0:
		return verrors.NewValidation("cache_size", "must not be negative")
	case c.Fetch.Attempts < 1:
		return verrors.NewValidation("fetch.attempts", "must be at least 1")
	case c.API.Port < 0 || c.API.Port > 65535:
		return verrors.NewValidation("api.port", "must be a TCP port")
	case c.API.APIKey != "" && len(c.API.APIKey) < 16:
		return verrors.NewValidation("api.api_key", "must be at least 16 characters")
	case c.API.RateLimit < 0 || c.API.RateBurst < 0:
		return verrors.NewValidation("api.rate_limit", "must not be negative")
	}
	return nil
}

// MatchOptions returns the matcher options for whole-verse checks.
func (c *Config) MatchOptions() []matcher.Option {
	return []matcher.Option{
		matcher.WithTolerance(c.Matching.ToleranceLevel),
		matcher.WithCharacterSwaps(c.Matching.AllowCharacterSwaps),
		matcher.WithSimilarChars(c.Matching.AllowSimilarChars),
	}
}

// Language returns the display language.
func (c *Config) Language() books.Language {
	return books.Language(strings.ToLower(c.DisplayLanguage))
}

// StorePath is the SQLite file holding downloaded sources.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "sources.db")
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a config manager and loads the initial config. An
// empty cfgFile searches ./config.yaml and $HOME/.versemem/config.yaml; a
// missing file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{v: viper.New()}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("display_language", d.DisplayLanguage)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("matching.tolerance_level", d.Matching.ToleranceLevel)
	v.SetDefault("matching.line_tolerance", d.Matching.LineTolerance)
	v.SetDefault("matching.allow_character_swaps", d.Matching.AllowCharacterSwaps)
	v.SetDefault("matching.allow_similar_chars", d.Matching.AllowSimilarChars)
	v.SetDefault("matching.words_per_line", d.Matching.WordsPerLine)
	v.SetDefault("sources.base_url", d.Sources.BaseURL)
	v.SetDefault("sources.urls", d.Sources.URLs)
	v.SetDefault("sources.dir", d.Sources.Dir)
	v.SetDefault("fetch.attempts", d.Fetch.Attempts)
	v.SetDefault("fetch.delay", d.Fetch.Delay)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.min_bytes", d.Fetch.MinBytes)
	v.SetDefault("testaments.new_testament_stems", d.Testaments.NewTestamentStems)
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.allowed_origins", d.API.AllowedOrigins)
	v.SetDefault("api.api_key", d.API.APIKey)
	v.SetDefault("api.rate_limit", d.API.RateLimit)
	v.SetDefault("api.rate_burst", d.API.RateBurst)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.versemem")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, or "".
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. An edit that fails
// to parse or validate keeps the previous configuration; onError, if set,
// receives the failure.
func (cm *Manager) WatchConfig(onError func(error)) {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// WriteDefault writes the default configuration to path as YAML.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# versemem configuration
# Every key can be overridden with a VERSEMEM_ environment variable,
# e.g. VERSEMEM_MATCHING_TOLERANCE_LEVEL=0.9

`)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}
