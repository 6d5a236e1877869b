package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/fusionn-scout/pkg/logger"
)

const envPrefix = "FUSIONN_SCOUT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Indexers  []IndexerConfig `mapstructure:"indexers"`
	TVMaze    TVMazeConfig    `mapstructure:"tvmaze"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Sonarr    SonarrConfig    `mapstructure:"sonarr"`
	Radarr    RadarrConfig    `mapstructure:"radarr"`
	Overseerr OverseerrConfig `mapstructure:"overseerr"`
	Apprise   AppriseConfig   `mapstructure:"apprise"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // SQLite file, created on first start
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"` // debug, info, warn, error (default: info, debug in dev)
	File       string `mapstructure:"file"`  // Optional JSON log file, rotated
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SchedulerConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type DiscoveryConfig struct {
	OnlyAired       bool   `mapstructure:"only_aired"`       // Skip episodes not aired and movies not released yet
	MovieYear       bool   `mapstructure:"movie_year"`       // Append the release year to movie titles
	MetadataWorkers int    `mapstructure:"metadata_workers"` // Parallel metadata lookups
	SeriesQuality   string `mapstructure:"series_quality"`   // Empty: episodes are not filtered by quality
}

// IndexerConfig is one newznab indexer as written by the user. Either URL
// (used verbatim) or Website + APIKey must be set.
type IndexerConfig struct {
	Name           string `mapstructure:"name"`
	URL            string `mapstructure:"url"`
	Website        string `mapstructure:"website"`
	APIKey         string `mapstructure:"apikey"`
	Category       string `mapstructure:"category"` // movie, tvsearch (tv), music, book
	WaitSeconds    *int   `mapstructure:"wait_seconds"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type TVMazeConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Requests       int    `mapstructure:"requests"`       // Allowed requests per window
	WindowSeconds  int    `mapstructure:"window_seconds"` // TVMaze allows 20 per 10s
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ProgressConfig struct {
	Source string `mapstructure:"source"` // store (default) or sonarr
}

type QueueConfig struct {
	Source         string `mapstructure:"source"`          // store (default), radarr or overseerr
	DefaultQuality string `mapstructure:"default_quality"` // Used for movies imported from Radarr or Overseerr
}

type SonarrConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type RadarrConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type OverseerrConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type AppriseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"` // Apprise API URL (e.g., http://apprise:8000)
	Key     string `mapstructure:"key"`      // Apprise config key (default: apprise)
	Tag     string `mapstructure:"tag"`      // Tag to filter services (default: all)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "data/scout.db")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("scheduler.cron", "0 */6 * * *")
	v.SetDefault("discovery.only_aired", true)
	v.SetDefault("discovery.movie_year", true)
	v.SetDefault("discovery.metadata_workers", 4)
	v.SetDefault("tvmaze.base_url", "https://api.tvmaze.com")
	v.SetDefault("tvmaze.requests", 20)
	v.SetDefault("tvmaze.window_seconds", 10)
	v.SetDefault("tvmaze.timeout_seconds", 30)
	v.SetDefault("progress.source", SourceStore)
	v.SetDefault("queue.source", SourceStore)
	v.SetDefault("queue.default_quality", "720p")
	v.SetDefault("apprise.key", "apprise")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable override support
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ChangeCallback is called when config changes. Receives old and new config.
type ChangeCallback func(old, new *Config)

// Manager handles config loading and hot-reload.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	cfg       *Config
	callbacks []ChangeCallback
}

// NewManager creates a config manager with hot-reload support.
func NewManager(path string) (*Manager, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	m := &Manager{v: v, cfg: cfg}

	// Setup hot-reload
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Infof("🔄 Config file changed: %s", e.Name)
		m.reload()
	})
	v.WatchConfig()

	return m, nil
}

// Get returns the current config (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// OnChange registers a callback for config changes.
func (m *Manager) OnChange(cb ChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// reload re-reads config and notifies subscribers. An invalid file keeps the
// previous config.
func (m *Manager) reload() {
	newCfg, err := decode(m.v)
	if err != nil {
		logger.Errorf("❌ Failed to reload config: %v", err)
		return
	}

	m.mu.Lock()
	oldCfg := m.cfg
	m.cfg = newCfg
	callbacks := m.callbacks
	m.mu.Unlock()

	// Log what changed
	logChanges(oldCfg, newCfg, "")

	// Notify subscribers outside lock
	for _, cb := range callbacks {
		cb(oldCfg, newCfg)
	}
}

// logChanges logs field-level differences between old and new config.
func logChanges(old, cur any, prefix string) {
	oldVal := reflect.ValueOf(old)
	newVal := reflect.ValueOf(cur)

	// Dereference pointers
	if oldVal.Kind() == reflect.Ptr {
		oldVal = oldVal.Elem()
	}
	if newVal.Kind() == reflect.Ptr {
		newVal = newVal.Elem()
	}

	if oldVal.Kind() != reflect.Struct {
		return
	}

	t := oldVal.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		oldField := oldVal.Field(i)
		newField := newVal.Field(i)

		fieldName := field.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		// Recurse into nested structs
		if oldField.Kind() == reflect.Struct {
			logChanges(oldField.Interface(), newField.Interface(), fieldName)
			continue
		}

		if oldField.Kind() == reflect.Slice && oldField.Type().Elem() == reflect.TypeOf(IndexerConfig{}) {
			if !reflect.DeepEqual(oldField.Interface(), newField.Interface()) {
				logger.Infof("  📝 %s: %d → %d indexers", fieldName, oldField.Len(), newField.Len())
			}
			continue
		}

		// Compare values
		if !reflect.DeepEqual(oldField.Interface(), newField.Interface()) {
			logger.Infof("  📝 %s: %s → %s", fieldName, formatValue(field, oldField), formatValue(field, newField))
		}
	}
}

// formatValue formats a reflect.Value for logging, masking secrets.
func formatValue(field reflect.StructField, v reflect.Value) string {
	if isSecret(field.Tag.Get("mapstructure")) {
		if v.Kind() == reflect.String && v.Len() > 0 {
			return "***"
		}
	}
	return fmt.Sprintf("%v", v.Interface())
}

func isSecret(key string) bool {
	return key == "api_key" || key == "apikey"
}

// Load reads and validates the config once, without watching it.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return decode(v)
}
