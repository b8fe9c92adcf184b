package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// isolate runs the test in an empty directory so no flowgraph.toml or .env
// from the repository leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfigPrefix+"_CONFIG", "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if cfg.Elasticsearch != want.Elasticsearch {
		t.Errorf("Elasticsearch = %+v, want %+v", cfg.Elasticsearch, want.Elasticsearch)
	}
	if cfg.Cache != want.Cache {
		t.Errorf("Cache = %+v, want %+v", cfg.Cache, want.Cache)
	}
	if cfg.Pcap.ScribeHost != "mq-s2" || !slices.Equal(cfg.Pcap.CollapsePrefixes, []string{"ap-"}) {
		t.Errorf("Pcap = %+v", cfg.Pcap)
	}
	if !slices.Equal(cfg.Render.Formats, []string{"tsv"}) {
		t.Errorf("Render.Formats = %v, want [tsv]", cfg.Render.Formats)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `
[elasticsearch]
url = "https://logs.example.com:9200"
index_prefix = "logstash-"
limit = 500
timeout = "5s"

[cache]
backend = "memory"
size = 128
ttl = "12h"

[pcap]
scribe_host = "scribe-1"
collapse_prefixes = ["ap-", "web-"]

[render]
formats = ["dot", "svg"]
weight_floor = 0.05
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Elasticsearch.URL != "https://logs.example.com:9200" {
		t.Errorf("URL = %q", cfg.Elasticsearch.URL)
	}
	if cfg.Elasticsearch.IndexPrefix != "logstash-" || cfg.Elasticsearch.Limit != 500 {
		t.Errorf("Elasticsearch = %+v", cfg.Elasticsearch)
	}
	if cfg.Elasticsearch.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Elasticsearch.Timeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Elasticsearch.Query != "@message: /SQL.*/" {
		t.Errorf("Query = %q, want default", cfg.Elasticsearch.Query)
	}
	if cfg.Cache.Backend != CacheMemory || cfg.Cache.Size != 128 || cfg.Cache.TTL != 12*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Pcap.ScribeHost != "scribe-1" || !slices.Equal(cfg.Pcap.CollapsePrefixes, []string{"ap-", "web-"}) {
		t.Errorf("Pcap = %+v", cfg.Pcap)
	}
	if !slices.Equal(cfg.Render.Formats, []string{"dot", "svg"}) || cfg.Render.WeightFloor != 0.05 {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestLoadWorkingDirectoryFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, FileName), "[pcap]\nscribe_host = \"local\"\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Pcap.ScribeHost != "local" {
		t.Errorf("ScribeHost = %q, want %q", cfg.Pcap.ScribeHost, "local")
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "env.toml")
	writeFile(t, path, "[elasticsearch]\nlimit = 42\n")
	t.Setenv(EnvConfigPrefix+"_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Elasticsearch.Limit != 42 {
		t.Errorf("Limit = %d, want 42", cfg.Elasticsearch.Limit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "base.toml")
	writeFile(t, path, "[elasticsearch]\nlimit = 42\n[cache]\nbackend = \"memory\"\n")

	t.Setenv("FLOWGRAPH_ES_URL", "http://es.internal:9200")
	t.Setenv("FLOWGRAPH_ES_INDEX_PREFIX", "app-")
	t.Setenv("FLOWGRAPH_CACHE_BACKEND", "redis")
	t.Setenv("FLOWGRAPH_CACHE_REDIS_ADDR", "redis:6379")
	t.Setenv("FLOWGRAPH_CACHE_TTL", "90s")
	t.Setenv("FLOWGRAPH_PCAP_COLLAPSE_PREFIXES", "ap-,db-")
	t.Setenv("FLOWGRAPH_RENDER_WEIGHT_FLOOR", "0.1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Elasticsearch.URL != "http://es.internal:9200" || cfg.Elasticsearch.IndexPrefix != "app-" {
		t.Errorf("Elasticsearch = %+v", cfg.Elasticsearch)
	}
	if cfg.Elasticsearch.Limit != 42 {
		t.Errorf("Limit = %d, want file value 42", cfg.Elasticsearch.Limit)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "redis:6379" || cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if !slices.Equal(cfg.Pcap.CollapsePrefixes, []string{"ap-", "db-"}) {
		t.Errorf("CollapsePrefixes = %v", cfg.Pcap.CollapsePrefixes)
	}
	if cfg.Render.WeightFloor != 0.1 {
		t.Errorf("WeightFloor = %v, want 0.1", cfg.Render.WeightFloor)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "FLOWGRAPH_PCAP_SCRIBE_HOST=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("FLOWGRAPH_PCAP_SCRIBE_HOST") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Pcap.ScribeHost != "from-dotenv" {
		t.Errorf("ScribeHost = %q, want %q", cfg.Pcap.ScribeHost, "from-dotenv")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		code    errors.Code
	}{
		{"unknown key", "[cache]\nbackend = \"file\"\ncolour = 1\n", nil, errors.ErrCodeInvalidConfig},
		{"bad toml", "[cache\n", nil, errors.ErrCodeInvalidConfig},
		{"bad backend", "[cache]\nbackend = \"disk\"\n", nil, errors.ErrCodeInvalidConfig},
		{"zero limit", "[elasticsearch]\nlimit = 0\n", nil, errors.ErrCodeInvalidConfig},
		{"negative retries", "[elasticsearch]\nretries = -1\n", nil, errors.ErrCodeInvalidConfig},
		{"uppercase prefix", "[elasticsearch]\nindex_prefix = \"Logs-\"\n", nil, errors.ErrCodeInvalidConfig},
		{"floor out of range", "[render]\nweight_floor = 1.5\n", nil, errors.ErrCodeInvalidConfig},
		{"bad url", "[elasticsearch]\nurl = \"ftp://host\"\n", nil, errors.ErrCodeInvalidInput},
		{"bad env int", "", map[string]string{"FLOWGRAPH_ES_LIMIT": "many"}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.toml")
			writeFile(t, path, tt.content)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestValidateCacheBackends(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"none", func(c *Config) { c.Cache.Backend = CacheNone }, true},
		{"file without dir", func(c *Config) { c.Cache.Dir = "" }, false},
		{"memory without dir", func(c *Config) { c.Cache.Backend = CacheMemory; c.Cache.Dir = "" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddr = "" }, false},
		{"negative size", func(c *Config) { c.Cache.Size = -1 }, false},
		{"zero timeout", func(c *Config) { c.Elasticsearch.Timeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
