package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"ascache/internal/store"
	"ascache/internal/support"
)

const maxASN = 4294967294

var ErrInvalidASN = errors.New("config: invalid AS number")

type Config struct {
	ASN        uint32 `yaml:"asn"`
	Label      string `yaml:"label"`
	Generator  string `yaml:"generator"`
	ListPrefix string `yaml:"list_prefix"`

	TTL          Timer `yaml:"ttl"`
	FetchTimeout Timer `yaml:"fetch_timeout"`
	WarmInterval Timer `yaml:"warm_interval"`

	Sources struct {
		RIPEURL    string `yaml:"ripe_url"`
		BGPViewURL string `yaml:"bgpview_url"`
		UserAgent  string `yaml:"user_agent"`
		Proxy      string `yaml:"proxy"`
	} `yaml:"sources"`

	Store store.Config `yaml:"store"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

//go:embed default_settings.yaml
var defaultConfig []byte

// Load reads the embedded defaults, overlays the YAML file at path (if
// any), then applies environment overrides.
func Load(path string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfig, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		log.Debug("Settings file loaded", "path", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if raw, ok := support.FirstEnv("ASCACHE_ASN"); ok {
		asn, err := ParseASN(raw)
		if err != nil {
			return err
		}
		c.ASN = asn
	}
	if v, ok := support.FirstEnv("ASCACHE_LABEL"); ok {
		c.Label = v
	}
	if v, ok := support.FirstEnv("ASCACHE_LIST_PREFIX"); ok {
		c.ListPrefix = v
	}
	if v, ok := support.FirstEnv("ASCACHE_STORE"); ok {
		c.Store.Backend = store.Backend(strings.ToLower(v))
	}
	if v, ok := support.FirstEnv("ASCACHE_STORE_PATH"); ok {
		c.Store.Path = v
	}
	if v, ok := support.FirstEnv("REDIS_URL", "redisUrl"); ok {
		c.Store.RedisURL = v
	}
	if v, ok := support.FirstEnv("DATABASE_DRIVER"); ok {
		c.Store.Driver = v
	}
	if v, ok := support.FirstEnv("DATABASE_DSN"); ok {
		c.Store.DSN = v
	}
	if v, ok := support.FirstEnv("UPSTREAM_PROXY"); ok {
		c.Sources.Proxy = v
	}
	if v, ok := support.FirstEnv("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := support.FirstEnv("LOG_FILE"); ok {
		c.Log.File = v
	}
	return nil
}

func (c *Config) fillDerived() {
	if c.Label == "" {
		c.Label = fmt.Sprintf("AS%d", c.ASN)
	}
	if c.ListPrefix == "" {
		c.ListPrefix = strings.ToLower(fmt.Sprintf("as%d", c.ASN))
	}
	if c.Generator == "" {
		c.Generator = "RouterOS"
	}
}

func (c Config) Validate() error {
	if c.ASN == 0 || c.ASN > maxASN {
		return fmt.Errorf("%w: %d", ErrInvalidASN, c.ASN)
	}
	if strings.ContainsAny(c.ListPrefix, " \t\"[]") {
		return fmt.Errorf("config: list_prefix %q contains characters RouterOS list names cannot hold", c.ListPrefix)
	}
	if err := c.Store.Valid(); err != nil {
		return err
	}
	return nil
}

// ParseASN accepts "9009" as well as "AS9009".
func ParseASN(raw string) (uint32, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > 2 && strings.EqualFold(trimmed[:2], "as") {
		trimmed = trimmed[2:]
	}
	asn, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil || asn == 0 || asn > maxASN {
		return 0, fmt.Errorf("%w: %q", ErrInvalidASN, raw)
	}
	return uint32(asn), nil
}

// LogLevel parses the configured level, falling back to info.
func (c Config) LogLevel() log.Level {
	if c.Log.Level == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		log.Warn("invalid log level, using info", "value", c.Log.Level)
		return log.InfoLevel
	}
	return level
}
