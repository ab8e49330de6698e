package fetch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

// cacheFileExt marks compressed cache entries.
const cacheFileExt = ".lz4"

// defaultCacheTTL expires cached responses; GitHub data changes daily but
// a report run should never re-download within the same session.
const defaultCacheTTL = 6 * time.Hour

// cacheDirPerm and cacheFilePerm are the on-disk permissions.
const (
	cacheDirPerm  = 0o755
	cacheFilePerm = 0o644
)

// Cache is an LZ4-compressed on-disk response cache keyed by request URL,
// fronted by a size-bounded in-memory LRU. Entries older than the TTL are
// treated as misses. All methods are safe for concurrent use from multiple
// repository workers; keys never collide across workers because each
// worker requests distinct URLs.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger
	mem    *memCache
}

// NewCache creates the cache directory if needed. A zero ttl means the
// default TTL.
func NewCache(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	err := os.MkdirAll(dir, cacheDirPerm)
	if err != nil {
		return nil, err
	}

	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{dir: dir, ttl: ttl, logger: logger, mem: newMemCache(0)}, nil
}

// Get returns the cached body for a URL, or false on a miss. Corrupt or
// expired entries count as misses.
func (c *Cache) Get(url string) ([]byte, bool) {
	if body, ok := c.mem.get(url); ok {
		return body, true
	}

	path := c.path(url)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	body, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		c.logger.Warn("discarding corrupt cache entry", "path", path, "error", err)

		return nil, false
	}

	c.mem.put(url, body)

	return body, true
}

// Put stores a response body. Write failures are logged and ignored; the
// cache is an optimization, not a requirement.
func (c *Cache) Put(url string, body []byte) {
	c.mem.put(url, body)

	var buf bytes.Buffer

	zw := lz4.NewWriter(&buf)

	_, err := zw.Write(body)
	if err == nil {
		err = zw.Close()
	}

	if err != nil {
		c.logger.Warn("cache compression failed", "url", url, "error", err)

		return
	}

	path := c.path(url)

	err = os.WriteFile(path, buf.Bytes(), cacheFilePerm)
	if err != nil {
		c.logger.Warn("cache write failed", "path", path, "error", err)
	}
}

func (c *Cache) path(url string) string {
	sum := sha256.Sum256([]byte(url))

	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+cacheFileExt)
}
