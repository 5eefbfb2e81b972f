package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"ascache/internal/app/server"
	"ascache/internal/config"
	"ascache/internal/rangecache"
	"ascache/internal/store"
	"ascache/internal/support"
	"ascache/internal/upstream"
)

type Options struct {
	ConfigPath string
	Port       int
}

// Run serves the HTTP API until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, closeLog, err := bootstrap(opts.ConfigPath)
	if err != nil {
		return err
	}
	defer closeLog()

	cache, closeCache, err := NewCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	fallback := cfg.Server.Port
	if opts.Port != 0 {
		fallback = opts.Port
	}
	port := resolvePort("PORT", "BACKEND_PORT", fallback)

	if interval := cfg.WarmUpInterval(); interval > 0 {
		go cache.StartWarmRoutine(ctx, interval)
	}

	return server.OpenRoutes(ctx, port, cache)
}

// WriteScript fills the cache once and writes the rendered script to w.
func WriteScript(ctx context.Context, configPath string, w io.Writer) error {
	cfg, closeLog, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer closeLog()

	cache, closeCache, err := NewCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	script, err := cache.GetScript(ctx)
	if err != nil {
		return fmt.Errorf("render script: %w", err)
	}
	if _, err := io.WriteString(w, script); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

func bootstrap(configPath string) (config.Config, func(), error) {
	envFile := support.GetEnv("ASCACHE_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.", "path", envFile)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	closeLog := setupLogging(cfg)
	log.Debug("configuration loaded", "asn", cfg.ASN, "store", cfg.Store.Backend, "ttl", cfg.CacheTTL())
	return cfg, closeLog, nil
}

// NewCache builds the store, the upstream sources and the range cache for cfg.
func NewCache(ctx context.Context, cfg config.Config) (*rangecache.Cache, func(), error) {
	st, closeStore, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	client, err := upstream.NewHTTPClient(cfg.Sources.Proxy)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("build upstream client: %w", err)
	}

	cache, err := rangecache.New(ctx, rangecache.Options{
		ASN:          cfg.ASN,
		Sources:      upstream.Defaults(client, cfg.Sources.RIPEURL, cfg.Sources.BGPViewURL, cfg.Sources.UserAgent),
		Store:        st,
		TTL:          cfg.CacheTTL(),
		FetchTimeout: cfg.SourceTimeout(),
		Renderer: rangecache.Renderer{
			Generator:  cfg.Generator,
			Label:      cfg.Label,
			ListPrefix: cfg.ListPrefix,
		},
		Logger: log.Default(),
	})
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	return cache, func() {
		cache.Close()
		if err := closeStore(); err != nil {
			log.Warn("error closing store", "error", err)
		}
	}, nil
}

func resolvePort(primaryEnv, legacyEnv string, fallback int) int {
	if port := readPort(primaryEnv); port != 0 {
		return port
	}
	if port := readPort(legacyEnv); port != 0 {
		return port
	}
	return fallback
}

func readPort(envKey string) int {
	port := support.GetEnvInt(envKey, 0)
	if port < 0 || port > 65535 {
		log.Warn("invalid port override", "env", envKey, "value", port)
		return 0
	}
	return port
}
