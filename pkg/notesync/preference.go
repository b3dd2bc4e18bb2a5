package notesync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"

	DefaultViewMode = ViewList

	// ViewPreferenceKey is the key every store uses for the list layout.
	ViewPreferenceKey = "notes.view"
)

// ParseViewMode restricts a stored value to the known modes.
func ParseViewMode(raw string) (ViewMode, bool) {
	switch ViewMode(raw) {
	case ViewList, ViewGrid:
		return ViewMode(raw), true
	default:
		return DefaultViewMode, false
	}
}

// ViewPreferenceStore persists the raw preference value. Get reports ok=false when
// nothing is stored.
type ViewPreferenceStore interface {
	Get(ctx context.Context) (value string, ok bool, err error)
	Set(ctx context.Context, mode ViewMode) error
}

// LoadViewMode reads store and falls back to DefaultViewMode when the value is absent,
// unreadable or not a known mode.
func LoadViewMode(ctx context.Context, store ViewPreferenceStore) (ViewMode, error) {
	if store == nil {
		return DefaultViewMode, nil
	}
	raw, ok, err := store.Get(ctx)
	if err != nil || !ok {
		return DefaultViewMode, err
	}
	mode, _ := ParseViewMode(raw)
	return mode, nil
}

// FileStore keeps preferences in a small YAML document, e.g. ~/.config/notesync/prefs.yaml.
// Unknown keys in the file are preserved.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	prefs := map[string]string{}
	if err := yaml.Unmarshal(raw, &prefs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return prefs, nil
}

func (s *FileStore) Get(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := prefs[ViewPreferenceKey]
	return value, ok, nil
}

func (s *FileStore) Set(ctx context.Context, mode ViewMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		// A corrupt file is replaced rather than blocking the user.
		prefs = map[string]string{}
	}
	prefs[ViewPreferenceKey] = string(mode)

	out, err := yaml.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0o644)
}

// RedisStore shares the preference between the devices of one user.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, userId string) *RedisStore {
	return &RedisStore{rdb: rdb, key: fmt.Sprintf("prefs:%s:%s", userId, ViewPreferenceKey)}
}

func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	value, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, mode ViewMode) error {
	return s.rdb.Set(ctx, s.key, string(mode), 0).Err()
}

// MemoryStore is process-local; used by tests and short-lived commands.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(ctx context.Context) (string, bool, error) {
	value, ok := s.c.Get(ViewPreferenceKey)
	if !ok {
		return "", false, nil
	}
	str, ok := value.(string)
	return str, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, mode ViewMode) error {
	s.c.Set(ViewPreferenceKey, string(mode), cache.NoExpiration)
	return nil
}

// SetRaw stores an arbitrary value, as an older client or a hand edit might.
func (s *MemoryStore) SetRaw(value string) {
	s.c.Set(ViewPreferenceKey, value, cache.NoExpiration)
}
