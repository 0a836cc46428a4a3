// Package config loads and validates collector configuration via Viper.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Collector CollectorConfig `mapstructure:"collector"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Privacy   PrivacyConfig   `mapstructure:"privacy"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DiscoveryConfig governs the mirror search front end.
type DiscoveryConfig struct {
	InstanceURL        string  `mapstructure:"instance_url"`
	SearchTermsFile    string  `mapstructure:"search_terms_file"`
	UserAgent          string  `mapstructure:"user_agent"`
	SearchLang         string  `mapstructure:"search_lang"`
	FilterLang         string  `mapstructure:"filter_lang"`
	FilterConfidence   float64 `mapstructure:"filter_confidence"`
	MaxResultsPerTerm  int     `mapstructure:"max_results_per_term"`
	PageTimeoutSeconds int     `mapstructure:"page_timeout_seconds"`
	MirrorQPS          float64 `mapstructure:"mirror_qps"`
}

// CollectorConfig governs the cycle loop and working directories.
type CollectorConfig struct {
	CycleIntervalSeconds int    `mapstructure:"cycle_interval_seconds"`
	WorkDir              string `mapstructure:"work_dir"`
	OutputDir            string `mapstructure:"output_dir"`
	KeepMedia            bool   `mapstructure:"keep_media"`
}

// FetchConfig configures the media fetch gate retry behavior.
type FetchConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// EnrichConfig bounds OCR and transcription calls.
type EnrichConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LedgerConfig selects the dedup ledger backend.
type LedgerConfig struct {
	// Driver is "sqlite" or "file".
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// ToolsConfig names the external binaries the pipeline shells out to.
type ToolsConfig struct {
	Tesseract    string `mapstructure:"tesseract"`
	OCRLanguages string `mapstructure:"ocr_languages"`
	Whisper      string `mapstructure:"whisper"`
	WhisperModel string `mapstructure:"whisper_model"`
	WhisperLang  string `mapstructure:"whisper_lang"`
	FFprobe      string `mapstructure:"ffprobe"`
	YTDLP        string `mapstructure:"ytdlp"`
}

// PrivacyConfig holds the pseudonymization salt.
type PrivacyConfig struct {
	Salt string `mapstructure:"salt"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("XCOLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("discovery.instance_url", "https://twiiit.com")
	v.SetDefault("discovery.search_terms_file", "search_terms.txt")
	v.SetDefault("discovery.search_lang", "pt")
	v.SetDefault("discovery.filter_lang", "pt")
	v.SetDefault("discovery.filter_confidence", 0.8)
	v.SetDefault("discovery.max_results_per_term", 20)
	v.SetDefault("discovery.page_timeout_seconds", 60)
	v.SetDefault("discovery.mirror_qps", 0.5)
	v.SetDefault("collector.cycle_interval_seconds", 60)
	v.SetDefault("collector.work_dir", "media_work")
	v.SetDefault("collector.output_dir", "collections")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.timeout_seconds", 120)
	v.SetDefault("fetch.backoff_initial_ms", 250)
	v.SetDefault("fetch.backoff_max_ms", 5000)
	v.SetDefault("enrich.timeout_seconds", 300)
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.path", "collected_ids.db")
	v.SetDefault("tools.tesseract", "tesseract")
	v.SetDefault("tools.ocr_languages", "por+eng")
	v.SetDefault("tools.whisper", "whisper")
	v.SetDefault("tools.whisper_model", "base")
	v.SetDefault("tools.whisper_lang", "pt")
	v.SetDefault("tools.ffprobe", "ffprobe")
	v.SetDefault("tools.ytdlp", "yt-dlp")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Discovery.InstanceURL == "" {
		return fmt.Errorf("discovery.instance_url must be set")
	}
	if c.Discovery.SearchTermsFile == "" {
		return fmt.Errorf("discovery.search_terms_file must be set")
	}
	if c.Discovery.MaxResultsPerTerm <= 0 {
		return fmt.Errorf("discovery.max_results_per_term must be > 0")
	}
	if c.Discovery.PageTimeoutSeconds <= 0 {
		return fmt.Errorf("discovery.page_timeout_seconds must be > 0")
	}
	if c.Collector.CycleIntervalSeconds <= 0 {
		return fmt.Errorf("collector.cycle_interval_seconds must be > 0")
	}
	if c.Collector.WorkDir == "" {
		return fmt.Errorf("collector.work_dir must be set")
	}
	if c.Collector.OutputDir == "" {
		return fmt.Errorf("collector.output_dir must be set")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Enrich.TimeoutSeconds <= 0 {
		return fmt.Errorf("enrich.timeout_seconds must be > 0")
	}
	switch c.Ledger.Driver {
	case "sqlite", "file":
	default:
		return fmt.Errorf("ledger.driver must be sqlite or file, got %q", c.Ledger.Driver)
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path must be set")
	}
	if c.Privacy.Salt == "" {
		return fmt.Errorf("privacy.salt must be set")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// CycleInterval returns the pause between cycles as a duration.
func (c Config) CycleInterval() time.Duration {
	return time.Duration(c.Collector.CycleIntervalSeconds) * time.Second
}

// PageTimeout returns the discovery page timeout as a duration.
func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.Discovery.PageTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-attempt media download bound.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// EnrichTimeout returns the per-call enrichment bound.
func (c Config) EnrichTimeout() time.Duration {
	return time.Duration(c.Enrich.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the base delay for blocked-fetch retries.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.Fetch.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the backoff ceiling for blocked-fetch retries.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Fetch.BackoffMaxMs) * time.Millisecond
}

// LoadSearchTerms reads the search term list: one term per line, blank
// lines and '#' comments skipped. An empty list is a configuration error.
func LoadSearchTerms(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open search terms file %s: %w", path, err)
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read search terms file %s: %w", path, err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("search terms file %s is empty", path)
	}
	return terms, nil
}
