package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("store: key not found")
	ErrUnknownBackend = errors.New("store: unknown backend")
)

// Interface is a byte-oriented key-value store. Set replaces the whole
// value in one write.
type Interface interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendDatabase Backend = "database"
)

// Config selects and configures a backend.
type Config struct {
	Backend  Backend `yaml:"backend"`
	Path     string  `yaml:"path"`
	RedisURL string  `yaml:"redis_url"`
	Driver   string  `yaml:"driver"`
	DSN      string  `yaml:"dsn"`
}

func (c Config) Valid() error {
	switch Backend(strings.ToLower(string(c.Backend))) {
	case BackendMemory, "":
		return nil
	case BackendFile:
		if c.Path == "" {
			return errors.New("store: file backend needs a path")
		}
		return nil
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("store: redis backend needs a url")
		}
		return nil
	case BackendDatabase:
		if c.DSN == "" {
			return errors.New("store: database backend needs a dsn")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

// New builds the configured backend. The returned close function releases
// connections held by the backend.
func New(ctx context.Context, cfg Config) (Interface, func() error, error) {
	if err := cfg.Valid(); err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }

	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case BackendFile:
		s, err := NewFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case BackendRedis:
		s, err := OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendDatabase:
		s, err := OpenDatabase(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return NewMemory(), noop, nil
	}
}
