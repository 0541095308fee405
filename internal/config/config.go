package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Europe/Dublin"

	configPathEnv    = "NEWSDIGEST_CONFIG"
	databasePathEnv  = "DATABASE_PATH"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	newsAPIKeyEnv    = "NEWSAPI_KEY"
	rssFeedsEnv      = "RSS_FEEDS"
	updateTokenEnv   = "UPDATE_TOKEN"
	regionKeywordEnv = "REGION_KEYWORDS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Region    RegionConfig    `yaml:"region"`
	Sources   SourcesConfig   `yaml:"sources"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Digest    DigestConfig    `yaml:"digest"`
	Backup    BackupConfig    `yaml:"backup"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Trigger   TriggerConfig   `yaml:"trigger"`
}

// LoggingConfig controls the slog handler. Format is "text" or "json"; long
// running commands default to json when it is left empty.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the embedded store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RegionConfig defines the locality the digest is written for.
type RegionConfig struct {
	Name        string   `yaml:"name"`
	Publication string   `yaml:"publication"`
	Keywords    []string `yaml:"keywords"`
	Connections []string `yaml:"connections"`
}

// SourcesConfig groups upstream feed and API settings.
type SourcesConfig struct {
	Feeds            []string      `yaml:"feeds"`
	NewsAPI          NewsAPIConfig `yaml:"newsapi"`
	MinArticleLength int           `yaml:"minArticleLength"`
}

// NewsAPIConfig wires the NewsAPI "everything" endpoint.
type NewsAPIConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"apiKey"`
	PageSize   int    `yaml:"pageSize"`
	WindowDays int    `yaml:"windowDays"`
}

// OracleConfig defines how to contact the generative-text service.
type OracleConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// PipelineConfig bounds oracle spend and store growth per run.
type PipelineConfig struct {
	DedupeBatchSize    int `yaml:"dedupeBatchSize"`
	MaxDailyRewrites   int `yaml:"maxDailyRewrites"`
	OracleCallDelayMS  int `yaml:"oracleCallDelayMs"`
	ItemDelayMS        int `yaml:"itemDelayMs"`
	RetentionDays      int `yaml:"retentionDays"`
	PageFetchTimeoutMS int `yaml:"pageFetchTimeoutMs"`
}

// OracleCallDelay is the fixed pause between similarity oracle calls.
func (p PipelineConfig) OracleCallDelay() time.Duration {
	return time.Duration(p.OracleCallDelayMS) * time.Millisecond
}

// ItemDelay is the fixed pause between rewrite items.
func (p PipelineConfig) ItemDelay() time.Duration {
	return time.Duration(p.ItemDelayMS) * time.Millisecond
}

// Retention is the TTL applied to article-like store writes.
func (p PipelineConfig) Retention() time.Duration {
	return time.Duration(p.RetentionDays) * 24 * time.Hour
}

// PageFetchTimeout bounds enrichment page fetches.
func (p PipelineConfig) PageFetchTimeout() time.Duration {
	return time.Duration(p.PageFetchTimeoutMS) * time.Millisecond
}

// DigestConfig bounds the digest candidate set.
type DigestConfig struct {
	CandidateLimit int `yaml:"candidateLimit"`
}

// BackupConfig locates the secondary JSON backup of rewritten articles.
type BackupConfig struct {
	Dir string `yaml:"dir"`
}

// SchedulerConfig defines when the daily run fires.
type SchedulerConfig struct {
	Hour     int            `yaml:"hour"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// TriggerConfig gates the fire-and-forget trigger operations.
type TriggerConfig struct {
	Token string `yaml:"token"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Oracle.APIKey = v
	}

	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Sources.NewsAPI.APIKey = v
	}

	if v := os.Getenv(rssFeedsEnv); v != "" {
		c.Sources.Feeds = splitList(v)
	}

	if v := os.Getenv(regionKeywordEnv); v != "" {
		c.Region.Keywords = splitList(v)
	}

	if v := os.Getenv(updateTokenEnv); v != "" {
		c.Trigger.Token = v
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	loc, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "newsdigest.db"},
		Region: RegionConfig{
			Name:        "Limerick, Ireland",
			Publication: "The Limerick Weekly",
			Keywords:    []string{"Limerick"},
			Connections: []string{
				"Limerick city or county",
				"Shannon (town or airport nearby)",
				"Munster (province that includes Limerick)",
				"Irish national news that affects Limerick",
				"People from Limerick",
				"Sports teams from Limerick (e.g., Munster Rugby, Limerick GAA)",
				"Businesses or events in Limerick",
			},
		},
		Sources: SourcesConfig{
			NewsAPI: NewsAPIConfig{
				Endpoint:   "https://newsapi.org/v2",
				PageSize:   20,
				WindowDays: 7,
			},
			MinArticleLength: 100,
		},
		Oracle: OracleConfig{
			Endpoint: "https://generativelanguage.googleapis.com",
			Model:    "gemini-2.0-flash-lite",
		},
		Pipeline: PipelineConfig{
			DedupeBatchSize:    100,
			MaxDailyRewrites:   20,
			OracleCallDelayMS:  500,
			ItemDelayMS:        1000,
			RetentionDays:      30,
			PageFetchTimeoutMS: 10000,
		},
		Digest:    DigestConfig{CandidateLimit: 50},
		Backup:    BackupConfig{Dir: "articles"},
		Scheduler: SchedulerConfig{Hour: 6, Timezone: defaultTimezone, location: loc},
		Trigger:   TriggerConfig{Token: ""},
	}
}
