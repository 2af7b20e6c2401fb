package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "FINTECH_NEWS_CONFIG"
	nerAPIKeyEnv     = "NER_API_KEY"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Source groups selectable for a fetch cycle.
const (
	GroupSources  = "sources"
	GroupBreaking = "breaking_sources"
	GroupAll      = "all"
)

// Config holds all settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	HTTP          HTTPConfig         `yaml:"http"`
	Concurrency   ConcurrencyConfig  `yaml:"concurrency"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`
	Retry         RetryConfig        `yaml:"retry"`
	HumanMode     HumanModeConfig    `yaml:"human_mode"`
	RSS           RSSConfig          `yaml:"rss"`
	Crawl         CrawlConfig        `yaml:"crawl"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Storage       StorageConfig      `yaml:"storage"`
	BreakingNews  BreakingConfig     `yaml:"breaking_news"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	NER           NERConfig          `yaml:"ner"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
	BreakingSrcs  []SourceConfig     `yaml:"breaking_sources"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig describes outbound request behavior. A nil header override value
// means "remove this header" for that domain.
type HTTPConfig struct {
	UserAgent          string                        `yaml:"user_agent"`
	TimeoutSeconds     int                           `yaml:"timeout_seconds"`
	UserAgentOverrides map[string]string             `yaml:"user_agent_overrides"`
	HeaderOverrides    map[string]map[string]*string `yaml:"header_overrides"`
}

// Timeout resolves the total per-request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// ConcurrencyConfig bounds total in-flight requests across all domains.
type ConcurrencyConfig struct {
	MaxInFlightRequests int `yaml:"max_in_flight_requests"`
}

// RateLimitConfig bounds per-domain request rate.
type RateLimitConfig struct {
	MaxRequestsPerPeriod int     `yaml:"max_requests_per_period"`
	PeriodSeconds        float64 `yaml:"period_seconds"`
}

// Period resolves the sliding-window length.
func (r RateLimitConfig) Period() time.Duration {
	return time.Duration(r.PeriodSeconds * float64(time.Second))
}

// RetryConfig describes the transient-failure retry policy.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts"`
	BaseDelaySeconds float64 `yaml:"base_delay_seconds"`
	MaxDelaySeconds  float64 `yaml:"max_delay_seconds"`
	RetryStatuses    []int   `yaml:"retry_statuses"`
}

// BaseDelay resolves the first backoff delay.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelaySeconds * float64(time.Second))
}

// MaxDelay resolves the backoff ceiling.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelaySeconds * float64(time.Second))
}

// HumanModeConfig adds a random pre-request delay to pace like a human reader.
type HumanModeConfig struct {
	Enabled         bool    `yaml:"enabled"`
	MinDelaySeconds float64 `yaml:"min_delay_seconds"`
	MaxDelaySeconds float64 `yaml:"max_delay_seconds"`
}

// MinDelay resolves the lower bound of the pacing range.
func (h HumanModeConfig) MinDelay() time.Duration {
	return time.Duration(h.MinDelaySeconds * float64(time.Second))
}

// MaxDelay resolves the upper bound of the pacing range.
func (h HumanModeConfig) MaxDelay() time.Duration {
	return time.Duration(h.MaxDelaySeconds * float64(time.Second))
}

// RSSConfig toggles feed ingestion.
type RSSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CrawlConfig controls seed-page link discovery and per-cycle workload.
type CrawlConfig struct {
	Enabled             bool `yaml:"enabled"`
	MaxLinksPerSeed     int  `yaml:"max_links_per_seed"`
	ScanLimit           int  `yaml:"scan_limit"`
	SameDomainOnly      bool `yaml:"same_domain_only"`
	MaxArticlesPerRun   int  `yaml:"max_articles_per_run"`
	MinArticleTextChars int  `yaml:"min_article_text_chars"`
}

// DedupConfig controls similarity-based deduplication against history.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	CompareWindow       int     `yaml:"compare_window"`
}

// StorageConfig describes per-source persistence.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
}

// BreakingConfig sets the threshold for the breaking verdict.
type BreakingConfig struct {
	Enabled  bool    `yaml:"enabled"`
	MinScore float64 `yaml:"min_score"`
}

// SchedulerConfig defines the two periodic fetch loops.
type SchedulerConfig struct {
	IntervalSeconds         int `yaml:"interval_seconds"`
	BreakingIntervalSeconds int `yaml:"breaking_interval_seconds"`
	JitterSeconds           int `yaml:"jitter_seconds"`
}

// Interval resolves the main loop period.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// BreakingInterval resolves the fast loop period.
func (s SchedulerConfig) BreakingInterval() time.Duration {
	return time.Duration(s.BreakingIntervalSeconds) * time.Second
}

// Jitter resolves the random slack added to each tick.
func (s SchedulerConfig) Jitter() time.Duration {
	return time.Duration(s.JitterSeconds) * time.Second
}

// NERConfig points at an optional OpenAI-compatible entity-recognition model.
type NERConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires the data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// SourceConfig describes a single news site.
type SourceConfig struct {
	ID         string   `yaml:"id"`
	Enabled    bool     `yaml:"enabled"`
	RSSURLs    []string `yaml:"rss_urls"`
	CrawlURLs  []string `yaml:"crawl_urls"`
	AllowRegex string   `yaml:"allow_regex"`
	DenyRegex  string   `yaml:"deny_regex"`
}

// Load reads YAML configuration from the path in FINTECH_NEWS_CONFIG (falling
// back to ./config.yaml when present), applies env overrides for secrets, and
// validates the result. Structural problems are fatal here, before any
// network activity starts.
func Load() (Config, error) {
	path := os.Getenv(configPathEnv)
	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		// no config file: run on defaults
	} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(nerAPIKeyEnv); v != "" {
		c.NER.APIKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// Validate checks the structural invariants the pipeline relies on.
func (c Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive")
	}
	if c.Concurrency.MaxInFlightRequests <= 0 {
		return fmt.Errorf("concurrency.max_in_flight_requests must be positive")
	}
	if c.RateLimit.MaxRequestsPerPeriod <= 0 {
		return fmt.Errorf("rate_limit.max_requests_per_period must be positive")
	}
	if c.RateLimit.PeriodSeconds <= 0 {
		return fmt.Errorf("rate_limit.period_seconds must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelaySeconds <= 0 || c.Retry.MaxDelaySeconds <= 0 {
		return fmt.Errorf("retry delays must be positive")
	}
	if c.HumanMode.Enabled && c.HumanMode.MaxDelaySeconds < c.HumanMode.MinDelaySeconds {
		return fmt.Errorf("human_mode.max_delay_seconds must not be below min_delay_seconds")
	}
	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("dedup.similarity_threshold must be in (0, 1]")
	}
	if c.Dedup.CompareWindow <= 0 {
		return fmt.Errorf("dedup.compare_window must be positive")
	}
	if c.Crawl.MinArticleTextChars < 0 {
		return fmt.Errorf("crawl.min_article_text_chars must not be negative")
	}
	if c.Scheduler.IntervalSeconds <= 0 || c.Scheduler.BreakingIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}

	for _, group := range [][]SourceConfig{c.Sources, c.BreakingSrcs} {
		for _, s := range group {
			if s.ID == "" {
				return fmt.Errorf("every source needs an id")
			}
			if s.AllowRegex != "" {
				if _, err := regexp.Compile(s.AllowRegex); err != nil {
					return fmt.Errorf("source %s: bad allow_regex: %w", s.ID, err)
				}
			}
			if s.DenyRegex != "" {
				if _, err := regexp.Compile(s.DenyRegex); err != nil {
					return fmt.Errorf("source %s: bad deny_regex: %w", s.ID, err)
				}
			}
		}
	}

	return nil
}

// ActiveSources resolves a source-group selector to its configured sources.
// An unknown selector is a structural error.
func (c Config) ActiveSources(group string) ([]SourceConfig, error) {
	switch group {
	case GroupSources:
		return c.Sources, nil
	case GroupBreaking:
		return c.BreakingSrcs, nil
	case GroupAll:
		out := make([]SourceConfig, 0, len(c.Sources)+len(c.BreakingSrcs))
		out = append(out, c.Sources...)
		out = append(out, c.BreakingSrcs...)
		return out, nil
	default:
		return nil, fmt.Errorf("source group must be one of %s, %s, %s; got %q",
			GroupSources, GroupBreaking, GroupAll, group)
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		HTTP: HTTPConfig{
			UserAgent:      "fintech-news/1.0",
			TimeoutSeconds: 20,
		},
		Concurrency: ConcurrencyConfig{MaxInFlightRequests: 8},
		RateLimit:   RateLimitConfig{MaxRequestsPerPeriod: 4, PeriodSeconds: 10},
		Retry: RetryConfig{
			MaxAttempts:      3,
			BaseDelaySeconds: 0.5,
			MaxDelaySeconds:  8,
			RetryStatuses:    []int{429, 500, 502, 503, 504},
		},
		HumanMode: HumanModeConfig{Enabled: false, MinDelaySeconds: 0.2, MaxDelaySeconds: 1.0},
		RSS:       RSSConfig{Enabled: true},
		Crawl: CrawlConfig{
			Enabled:             true,
			MaxLinksPerSeed:     35,
			ScanLimit:           1500,
			SameDomainOnly:      true,
			MaxArticlesPerRun:   120,
			MinArticleTextChars: 200,
		},
		Dedup:        DedupConfig{SimilarityThreshold: 0.92, CompareWindow: 200},
		Storage:      StorageConfig{Enabled: true, OutputDir: "data"},
		BreakingNews: BreakingConfig{Enabled: true, MinScore: 0.55},
		Scheduler: SchedulerConfig{
			IntervalSeconds:         900,
			BreakingIntervalSeconds: 180,
			JitterSeconds:           30,
		},
	}
}
