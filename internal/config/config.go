package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. SANGHOS_SERVER_ADDRESS overrides server.address.
const EnvPrefix = "SANGHOS_"

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "SANGHOS_CONFIG"

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Scrape  ScrapeConfig  `koanf:"scrape"`
	LLM     LLMConfig     `koanf:"llm"`
	Scoring ScoringConfig `koanf:"scoring"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Address string `koanf:"address"`
}

type StoreConfig struct {
	Path     string `koanf:"path"`
	SeedPath string `koanf:"seed_path"`
}

type ScrapeConfig struct {
	ServiceURL string        `koanf:"service_url"`
	APIKey     string        `koanf:"api_key"`
	Endpoints  []string      `koanf:"endpoints"`
	Timeout    time.Duration `koanf:"timeout"`
	// MinCandidates is the internal+partner count below which the
	// discovery scraper is invoked.
	MinCandidates int `koanf:"min_candidates"`
	// MaxResults caps validated scraped records per request.
	MaxResults int `koanf:"max_results"`
}

type LLMConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type ScoringConfig struct {
	PointsPath string `koanf:"points_path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Store: StoreConfig{
			Path:     "data/retreats.db",
			SeedPath: "data/retreats.json",
		},
		Scrape: ScrapeConfig{
			ServiceURL: "",
			APIKey:     "",
			Endpoints: []string{
				"https://www.retreat.guru/search/wellness",
				"https://bookretreats.com/s/wellness-retreats",
			},
			Timeout:       8 * time.Second,
			MinCandidates: 5,
			MaxResults:    5,
		},
		LLM: LLMConfig{
			URL:     "https://api.openai.com/v1/chat/completions",
			APIKey:  "",
			Model:   "gpt-4o-mini",
			Timeout: 15 * time.Second,
		},
		Scoring: ScoringConfig{
			PointsPath: "",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load builds the config from defaults, an optional YAML file, and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - SANGHOS_SERVER_ADDRESS -> server.address
//   - SANGHOS_SCRAPE_MIN_CANDIDATES -> scrape.min_candidates
//   - SANGHOS_LLM_API_KEY -> llm.api_key
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	mappings := map[string]string{
		"server_address":        "server.address",
		"store_path":            "store.path",
		"store_seed_path":       "store.seed_path",
		"scrape_service_url":    "scrape.service_url",
		"scrape_api_key":        "scrape.api_key",
		"scrape_timeout":        "scrape.timeout",
		"scrape_min_candidates": "scrape.min_candidates",
		"scrape_max_results":    "scrape.max_results",
		"llm_url":               "llm.url",
		"llm_api_key":           "llm.api_key",
		"llm_model":             "llm.model",
		"llm_timeout":           "llm.timeout",
		"scoring_points_path":   "scoring.points_path",
		"log_level":             "log.level",
		"log_pretty":            "log.pretty",
	}
	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	// Unknown keys fall through untouched so they never shadow real paths.
	return key
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Scrape.MinCandidates < 0 {
		return fmt.Errorf("scrape.min_candidates must be >= 0")
	}
	if c.Scrape.MaxResults <= 0 {
		return fmt.Errorf("scrape.max_results must be > 0")
	}
	if len(c.Scrape.Endpoints) > 2 {
		// Hard cap on outbound extraction calls per request.
		c.Scrape.Endpoints = c.Scrape.Endpoints[:2]
	}
	return nil
}
