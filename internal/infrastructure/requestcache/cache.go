package requestcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"ledger_reporter/internal/port"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// DiskCache persists completed fetch result sets as flat files, one per
// (path, expand) key, inside a single directory. Entries are write-once and
// never expire. An in-process memo in front keeps repeated reads off the
// disk.
type DiskCache struct {
	dir    string
	memo   *gocache.Cache
	mu     sync.Mutex
	logger *zap.Logger
}

// NewDiskCache creates a DiskCache rooted at dir. The directory is created
// lazily on the first write.
func NewDiskCache(dir string, logger *zap.Logger) port.RequestCache {
	return &DiskCache{
		dir:    dir,
		memo:   gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		logger: logger.Named("RequestCache"),
	}
}

// Get returns the cached result set for (path, expand), if present.
func (c *DiskCache) Get(path string, expand bool) ([]json.RawMessage, bool) {
	key := cacheKey(path, expand)

	if cached, ok := c.memo.Get(key); ok {
		return cached.([]json.RawMessage), true
	}

	data, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, false
	}

	var records []json.RawMessage
	if err := codec.Unmarshal(data, &records); err != nil {
		c.logger.Warn("Ignoring unreadable cache entry",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}

	c.memo.Set(key, records, gocache.NoExpiration)
	return records, true
}

// Put stores the result set for (path, expand). Writing to an existing key
// is a no-op: the first completed fetch wins.
func (c *DiskCache) Put(path string, expand bool, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	key := cacheKey(path, expand)

	c.mu.Lock()
	defer c.mu.Unlock()

	filePath := filepath.Join(c.dir, key)
	if _, err := os.Stat(filePath); err == nil {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", c.dir, err)
	}

	data, err := codec.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry %s: %w", key, err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}

	c.memo.Set(key, records, gocache.NoExpiration)
	return nil
}

// cacheKey encodes (path, expand) as a flat filename: path separators are
// replaced so the key never nests.
func cacheKey(path string, expand bool) string {
	return fmt.Sprintf("%s.expand-%t.json", strings.ReplaceAll(path, "/", "---"), expand)
}
