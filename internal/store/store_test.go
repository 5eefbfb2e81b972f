package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func runCommon(t *testing.T, s Interface) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "ascache:AS1:state"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on missing key returned %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "ascache:AS1:state", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := s.Get(ctx, "ascache:AS1:state")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Get returned %s, want {\"a\":1}", got)
	}

	if err := s.Set(ctx, "ascache:AS1:state", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set overwrite returned error: %v", err)
	}
	got, err = s.Get(ctx, "ascache:AS1:state")
	if err != nil || string(got) != `{"a":2}` {
		t.Fatalf("Get after overwrite returned (%s, %v), want {\"a\":2}", got, err)
	}

	if err := s.Delete(ctx, "ascache:AS1:state"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := s.Delete(ctx, "ascache:AS1:state"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete returned %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "ascache:AS1:state"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete returned %v, want ErrNotFound", err)
	}
}

func TestMemory(t *testing.T) {
	runCommon(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	s := NewMemory()
	value := []byte("abc")
	if err := s.Set(context.Background(), "k", value); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	value[0] = 'z'
	got, _ := s.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("Get returned %s, want abc", got)
	}
}

func TestFile(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	runCommon(t, s)
}

func TestFileKeysStayInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	if got := s.path("../../etc/passwd"); got[:len(dir)] != dir {
		t.Fatalf("path escaped store directory: %s", got)
	}
}

func TestDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s, err := NewDatabase(db)
	if err != nil {
		t.Fatalf("NewDatabase returned error: %v", err)
	}
	runCommon(t, s)
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDatabase("oracle", "dsn"); err == nil {
		t.Fatal("expected error for unknown driver, got nil")
	}
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return redis.NewStatusResult("", fmt.Errorf("unsupported value %T", value))
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis(t *testing.T) {
	runCommon(t, &Redis{client: &fakeRedis{data: make(map[string]string)}})
}

func TestJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	mem := NewMemory()
	js := &JSON[payload]{Underlying: mem, Prefix: "test:"}
	ctx := context.Background()

	if _, err := js.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get returned %v, want ErrNotFound", err)
	}
	if err := js.Set(ctx, "x", payload{Name: "a", Count: 2}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	raw, err := mem.Get(ctx, "test:x")
	if err != nil {
		t.Fatalf("underlying Get returned error: %v", err)
	}
	if string(raw) != `{"name":"a","count":2}` {
		t.Fatalf("stored %s, want {\"name\":\"a\",\"count\":2}", raw)
	}
	got, err := js.Get(ctx, "x")
	if err != nil || got.Name != "a" || got.Count != 2 {
		t.Fatalf("Get returned (%+v, %v)", got, err)
	}

	if err := mem.Set(ctx, "test:bad", []byte("{")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := js.Get(ctx, "bad"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on corrupt value returned %v, want decode error", err)
	}
}

func TestConfigValid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default memory", cfg: Config{}},
		{name: "file needs path", cfg: Config{Backend: BackendFile}, wantErr: true},
		{name: "file with path", cfg: Config{Backend: BackendFile, Path: "/tmp/x"}},
		{name: "redis needs url", cfg: Config{Backend: BackendRedis}, wantErr: true},
		{name: "database needs dsn", cfg: Config{Backend: BackendDatabase}, wantErr: true},
		{name: "case insensitive", cfg: Config{Backend: "MEMORY"}},
		{name: "unknown", cfg: Config{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Valid()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Valid returned %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewBuildsFileBackend(t *testing.T) {
	s, closeFn, err := New(context.Background(), Config{Backend: BackendFile, Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeFn()
	if _, ok := s.(*File); !ok {
		t.Fatalf("New returned %T, want *File", s)
	}
}
