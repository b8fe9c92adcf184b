// Package config loads flowgraph settings.
//
// Settings are layered; later layers win:
//
//  1. Defaults returned by [Default].
//  2. A TOML file (see [Load] for how it is located).
//  3. Environment variables prefixed with FLOWGRAPH, one prefix per section:
//     FLOWGRAPH_ES_*, FLOWGRAPH_CACHE_*, FLOWGRAPH_PCAP_*, FLOWGRAPH_RENDER_*.
//
// A .env file in the working directory is loaded into the environment first.
// Variables already set are not replaced.
//
// Example file:
//
//	[elasticsearch]
//	url = "http://127.0.0.1:59200"
//	index_prefix = "syslog-ng_"
//	limit = 5000
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// EnvConfigPrefix is the prefix of every environment variable read by Load.
const EnvConfigPrefix = "FLOWGRAPH"

// FileName is the config file looked up in the working directory.
const FileName = "flowgraph.toml"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Config holds every flowgraph setting.
type Config struct {
	Elasticsearch ElasticsearchConfig `toml:"elasticsearch"`
	Cache         CacheConfig         `toml:"cache"`
	Pcap          PcapConfig          `toml:"pcap"`
	Render        RenderConfig        `toml:"render"`
}

// ElasticsearchConfig configures the SQL log source.
type ElasticsearchConfig struct {
	URL         string        `toml:"url" envconfig:"URL"`
	Username    string        `toml:"username" split_words:"true"`
	Password    string        `toml:"password" split_words:"true"`
	IndexPrefix string        `toml:"index_prefix" split_words:"true"`
	Query       string        `toml:"query" split_words:"true"`
	Limit       int           `toml:"limit" split_words:"true"`
	Timeout     time.Duration `toml:"timeout" split_words:"true"`
	Retries     int           `toml:"retries" split_words:"true"` // extra attempts after a transient failure
}

// CacheConfig configures the hostname cache.
type CacheConfig struct {
	Backend       string        `toml:"backend" split_words:"true"`
	Dir           string        `toml:"dir" split_words:"true"`
	Size          int           `toml:"size" split_words:"true"`
	TTL           time.Duration `toml:"ttl" envconfig:"TTL"`
	RedisAddr     string        `toml:"redis_addr" split_words:"true"`
	RedisPassword string        `toml:"redis_password" split_words:"true"`
	RedisDB       int           `toml:"redis_db" envconfig:"REDIS_DB"`
}

// PcapConfig configures the packet capture source.
type PcapConfig struct {
	ScribeHost       string   `toml:"scribe_host" split_words:"true"`
	CollapsePrefixes []string `toml:"collapse_prefixes" split_words:"true"`
}

// RenderConfig configures output rendering.
type RenderConfig struct {
	Formats     []string `toml:"formats" split_words:"true"`
	WeightFloor float64  `toml:"weight_floor" split_words:"true"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Elasticsearch: ElasticsearchConfig{
			URL:         "http://127.0.0.1:59200",
			IndexPrefix: "syslog-ng_",
			Query:       "@message: /SQL.*/",
			Limit:       10000,
			Timeout:     30 * time.Second,
			Retries:     2,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			Dir:       DefaultCacheDir(),
			Size:      4096,
			TTL:       24 * time.Hour,
			RedisAddr: "localhost:6379",
		},
		Pcap: PcapConfig{
			ScribeHost:       "mq-s2",
			CollapsePrefixes: []string{"ap-"},
		},
		Render: RenderConfig{
			Formats: []string{"tsv"},
		},
	}
}

// DefaultCacheDir returns the directory of the file hostname cache:
// <user cache dir>/flowgraph/hosts, or .flowgraph/hosts when the user cache
// dir is unknown.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".flowgraph", "hosts")
	}
	return filepath.Join(base, "flowgraph", "hosts")
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
//
// The file is path when non-empty, else $FLOWGRAPH_CONFIG, else
// flowgraph.toml in the working directory if it exists. An explicitly named
// file that does not exist is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPrefix + "_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file %s", path)
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overrides fields whose environment variable is set. No field
// carries an envconfig default, so unset variables keep the current value.
func (c *Config) applyEnv() error {
	sections := []struct {
		prefix string
		spec   any
	}{
		{EnvConfigPrefix + "_ES", &c.Elasticsearch},
		{EnvConfigPrefix + "_CACHE", &c.Cache},
		{EnvConfigPrefix + "_PCAP", &c.Pcap},
		{EnvConfigPrefix + "_RENDER", &c.Render},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.spec); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s_* environment", s.prefix)
		}
	}
	return nil
}

// Validate checks enumerations and limits.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.Elasticsearch.URL); err != nil {
		return err
	}
	if err := errors.ValidateIndexPrefix(c.Elasticsearch.IndexPrefix); err != nil {
		return err
	}
	if c.Elasticsearch.Limit <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "elasticsearch.limit must be positive")
	}
	if c.Elasticsearch.Timeout <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "elasticsearch.timeout must be positive")
	}
	if c.Elasticsearch.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "elasticsearch.retries must not be negative")
	}

	backends := []string{CacheNone, CacheMemory, CacheFile, CacheRedis}
	if !slices.Contains(backends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"cache.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Cache.Backend)
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.dir is required for the file backend")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Cache.Size < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.size must not be negative")
	}

	if c.Render.WeightFloor < 0 || c.Render.WeightFloor > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.weight_floor must be within [0, 1]")
	}
	return nil
}
