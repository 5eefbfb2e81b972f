package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ascache/internal/domain"
)

// Database keeps values in the cache_records table.
type Database struct {
	db *gorm.DB
}

var _ Interface = (*Database)(nil)

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "", "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("store: unsupported database driver %q", driver)
	}
}

func OpenDatabase(driver, dsn string) (*Database, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	return NewDatabase(db)
}

// NewDatabase wraps an existing connection and migrates the cache table.
func NewDatabase(db *gorm.DB) (*Database, error) {
	if db == nil {
		return nil, errors.New("store: database connection was not configured")
	}
	if err := db.AutoMigrate(&domain.CacheRecord{}); err != nil {
		return nil, fmt.Errorf("store: auto migrate: %w", err)
	}
	return &Database{db: db}, nil
}

func (d *Database) Get(ctx context.Context, key string) ([]byte, error) {
	var rec domain.CacheRecord
	err := d.db.WithContext(ctx).Where("cache_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("store: select %q: %w", key, err)
	}
	return rec.Value, nil
}

func (d *Database) Set(ctx context.Context, key string, value []byte) error {
	rec := domain.CacheRecord{Key: key, Value: value}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: upsert %q: %w", key, err)
	}
	return nil
}

func (d *Database) Delete(ctx context.Context, key string) error {
	res := d.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&domain.CacheRecord{})
	if res.Error != nil {
		return fmt.Errorf("store: delete %q: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
