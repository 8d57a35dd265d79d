package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/infrastructure/scheduler"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWSFETCHER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"

	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Health        HealthConfig       `yaml:"health"`
	Recovery      RecoveryConfig     `yaml:"recovery"`
	Enrichment    EnrichmentConfig   `yaml:"enrichment"`
	OpenAI        OpenAIConfig       `yaml:"openai"`
	Notifications NotificationConfig `yaml:"notifications"`
	HTTP          HTTPConfig         `yaml:"http"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// DatabaseConfig selects the store. The memory driver keeps everything in process.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when runs are triggered.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FetchConfig tunes outbound requests and extraction limits.
type FetchConfig struct {
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	MinRequestDelay   time.Duration `yaml:"minRequestDelay"`
	MaxRetries        int           `yaml:"maxRetries"`
	RetryDelay        time.Duration `yaml:"retryDelay"`
	MaxFeedEntries    int           `yaml:"maxFeedEntries"`
	MaxPageLinks      int           `yaml:"maxPageLinks"`
	MinLinkTextLength int           `yaml:"minLinkTextLength"`
	MaxBodyBytes      int64         `yaml:"maxBodyBytes"`
	UserAgent         string        `yaml:"userAgent"`
	Concurrency       int           `yaml:"concurrency"`
}

// HealthConfig holds the auto-disable and health scoring thresholds.
type HealthConfig struct {
	ErrorWindow       time.Duration `yaml:"errorWindow"`
	DisableThreshold  int           `yaml:"disableThreshold"`
	HealthWindow      time.Duration `yaml:"healthWindow"`
	CriticalThreshold int           `yaml:"criticalThreshold"`
}

// RecoveryConfig controls the sweep over disabled sources.
type RecoveryConfig struct {
	Cooldown     time.Duration `yaml:"cooldown"`
	ProbeBackoff time.Duration `yaml:"probeBackoff"`
}

// EnrichmentConfig caches article pages fetched for feed entries.
type EnrichmentConfig struct {
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// OpenAIConfig defines how to contact the publication formatter.
// An empty API key leaves the formatter off.
type OpenAIConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// HTTPConfig is the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SourceConfig is a source seeded into the registry when its URL is unknown.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Kind    string `yaml:"kind"`
	Enabled *bool  `yaml:"enabled"`
}

// Load reads the file named by NEWSFETCHER_CONFIG (if set) and applies environment overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile decodes path over the defaults; an empty path uses defaults only.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints after loading.
func (c Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of memory, postgres", c.Database.Driver))
	}

	if err := scheduler.Validate(c.Scheduler.CronExpression); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.cronExpression: %w", err))
	}

	if c.Fetch.RequestTimeout <= 0 {
		errs = append(errs, errors.New("fetch.requestTimeout must be positive"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("fetch.maxRetries must not be negative"))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, errors.New("fetch.concurrency must be at least 1"))
	}
	if c.Health.DisableThreshold < 1 || c.Health.CriticalThreshold < 1 {
		errs = append(errs, errors.New("health thresholds must be at least 1"))
	}

	for i, s := range c.Sources {
		if strings.TrimSpace(s.URL) == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: url is required", i))
		}
		if _, err := domain.ParseSourceKind(s.Kind); err != nil {
			errs = append(errs, fmt.Errorf("sources[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SeedSources converts the configured sources into registry records.
func (c Config) SeedSources() []domain.Source {
	out := make([]domain.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		kind, err := domain.ParseSourceKind(s.Kind)
		if err != nil {
			continue
		}
		name := s.Name
		if name == "" {
			name = s.URL
		}
		enabled := true
		if s.Enabled != nil {
			enabled = *s.Enabled
		}
		out = append(out, domain.Source{Name: name, URL: s.URL, Kind: kind, Enabled: enabled})
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown timezone %s: %w", tz, err)
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
	return nil
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Driver: DriverMemory},
		Scheduler: SchedulerConfig{CronExpression: "0 */6 * * *", Timezone: defaultTimezone, location: tz},
		Fetch: FetchConfig{
			RequestTimeout:    20 * time.Second,
			MinRequestDelay:   2 * time.Second,
			MaxRetries:        2,
			RetryDelay:        5 * time.Second,
			MaxFeedEntries:    10,
			MaxPageLinks:      20,
			MinLinkTextLength: 10,
			MaxBodyBytes:      5 << 20,
			Concurrency:       1,
		},
		Health: HealthConfig{
			ErrorWindow:       7 * 24 * time.Hour,
			DisableThreshold:  10,
			HealthWindow:      24 * time.Hour,
			CriticalThreshold: 5,
		},
		Recovery:   RecoveryConfig{Cooldown: 24 * time.Hour, ProbeBackoff: time.Hour},
		Enrichment: EnrichmentConfig{CacheTTL: 6 * time.Hour},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "Transport Topics", URL: "https://www.ttnews.com/rss.xml", Kind: "feed"},
		{Name: "Trucking Info", URL: "https://www.truckinginfo.com/rss", Kind: "feed"},
		{Name: "Fleet Owner", URL: "https://www.fleetowner.com/rss.xml", Kind: "feed"},
		{Name: "Commercial Carrier Journal", URL: "https://www.ccjdigital.com/feed/", Kind: "feed"},
		{Name: "Overdrive Magazine", URL: "https://www.overdriveonline.com/feed/", Kind: "feed"},
		{Name: "Truck News", URL: "https://www.trucknews.com/feed/", Kind: "feed"},
		{Name: "Trucking.com", URL: "https://www.trucking.com/feed/", Kind: "feed"},
	}
}
