// Package config loads the engine's runtime configuration: cache backend
// selection, identity-bearing fields for record hashing, the curated
// knowledge-source allow-list, and connection settings for the MetaKG,
// resolver, and audit stores. Grounded on the same viper+godotenv layering
// the rest of this stack uses for configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the engine's boundary packages need at
// startup.
type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	MetaKG   MetaKGConfig   `yaml:"metakg"`
	Resolver ResolverConfig `yaml:"resolver"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Audit    AuditConfig    `yaml:"audit"`
	Dump     DumpConfig     `yaml:"dump"`
}

// CacheConfig controls whether and how result caching runs (spec §6: off
// switch, endpoint presence enables caching, TTL default 600s).
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// Addr formats the Redis connection address, or "" if no host is set.
func (c CacheConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetaKGConfig configures the Neo4j-backed MetaKG catalog.
type MetaKGConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ResolverConfig configures the identifier-resolution boundary. Exactly one
// of BaseURL (HTTP adapter) or SQLitePath (offline adapter) is expected to
// be set; BaseURL takes precedence when both are.
type ResolverConfig struct {
	BaseURL    string `yaml:"base_url"`
	SQLitePath string `yaml:"sqlite_path"`
}

// FetchConfig tunes the batch edge query handler's fan-out and the record
// identity fields ComputeHash fingerprints (spec §3, §9).
type FetchConfig struct {
	Concurrency    int               `yaml:"concurrency"`
	RateLimit      float64           `yaml:"rate_limit"`
	RateBurst      int               `yaml:"rate_burst"`
	IdentityFields []string          `yaml:"identity_fields"`
	CuratedSources []string          `yaml:"curated_sources"`
	// Endpoints maps a MetaKG api_name to the base URL cmd/trapiquery's
	// concrete APICaller posts TRAPI queries to.
	Endpoints map[string]string `yaml:"endpoints"`
}

// AuditConfig configures the Postgres-backed execution-summary sink.
type AuditConfig struct {
	DSN string `yaml:"dsn"`
}

// DumpConfig configures the bbolt-backed debug record dump (spec §6).
type DumpConfig struct {
	Path      string `yaml:"path"`
	Direction string `yaml:"direction"` // "read", "write", or "" to disable
}

// Default returns the configuration the engine starts with before any
// environment or file overrides are applied.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled: true,
			Port:    6379,
			TTL:     600 * time.Second,
		},
		MetaKG: MetaKGConfig{
			URI:      "bolt://localhost:7687",
			Database: "neo4j",
		},
		Fetch: FetchConfig{
			Concurrency:    10,
			RateLimit:      5,
			RateBurst:      1,
			IdentityFields: []string{"subject", "predicate", "object", "api"},
		},
		Dump: DumpConfig{
			Direction: "",
		},
	}
}

// Load reads .env files, then a YAML config file if present, then applies
// environment variable overrides — the same three-layer precedence the
// rest of this stack uses, env winning last.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("metakg", cfg.MetaKG)
	v.SetDefault("resolver", cfg.Resolver)
	v.SetDefault("fetch", cfg.Fetch)
	v.SetDefault("audit", cfg.Audit)
	v.SetDefault("dump", cfg.Dump)

	v.SetEnvPrefix("TRAPI")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
}

// applyEnvOverrides mirrors spec §6's named environment flags directly,
// since those names (RESULT_CACHING, REDIS_KEY_EXPIRE_TIME, ...) are fixed
// by the external interface contract and don't fit viper's TRAPI_* prefix.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RESULT_CACHING"); v != "" {
		cfg.Cache.Enabled = GetBool("RESULT_CACHING", cfg.Cache.Enabled)
	}
	if host := os.Getenv("CACHE_HOST"); host != "" {
		cfg.Cache.Host = host
	}
	if port := os.Getenv("CACHE_PORT"); port != "" {
		cfg.Cache.Port = GetInt("CACHE_PORT", cfg.Cache.Port)
	}
	if pw := os.Getenv("CACHE_PASSWORD"); pw != "" {
		cfg.Cache.Password = pw
	}
	if ttl := os.Getenv("REDIS_KEY_EXPIRE_TIME"); ttl != "" {
		if seconds, err := strconv.Atoi(ttl); err == nil {
			cfg.Cache.TTL = time.Duration(seconds) * time.Second
		}
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.MetaKG.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		cfg.MetaKG.User = user
	}
	if pw := os.Getenv("NEO4J_PASSWORD"); pw != "" {
		cfg.MetaKG.Password = pw
	}

	if url := os.Getenv("RESOLVER_BASE_URL"); url != "" {
		cfg.Resolver.BaseURL = url
	}
	if path := os.Getenv("RESOLVER_SQLITE_PATH"); path != "" {
		cfg.Resolver.SQLitePath = expandPath(path)
	}

	if dsn := os.Getenv("AUDIT_POSTGRES_DSN"); dsn != "" {
		cfg.Audit.DSN = dsn
	}

	if path := os.Getenv("DUMP_RECORDS_PATH"); path != "" {
		cfg.Dump.Path = expandPath(path)
	}
	if dir := os.Getenv("DUMP_RECORDS_DIRECTION"); dir != "" {
		cfg.Dump.Direction = dir
	}
}

func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
