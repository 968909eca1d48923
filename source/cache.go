package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssungjun83/Order-Dashboard/logging"
	"github.com/ssungjun83/Order-Dashboard/metrics"
)

// Key identifies one version of a source: a path with its modification time and size, or
// an uploaded file name with the SHA-256 of its content.
type Key struct {
	Source  string
	Version string
}

// PathKey versions a file by modification time and size, so a copy that preserves the
// mtime of the file it replaces still reloads when the content length differs.
func PathKey(path string, modified time.Time, size int64) Key {
	return Key{Source: path, Version: fmt.Sprintf("%s/%d", modified.UTC().Format(time.RFC3339Nano), size)}
}

func ContentKey(name string, content []byte) Key {
	sum := sha256.Sum256(content)
	return Key{Source: name, Version: hex.EncodeToString(sum[:])}
}

// Cache keeps the last normalised workbook per source. A lookup with a different version
// of a known source evicts the stale entry. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cached
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

type cached struct {
	version  string
	workbook *Workbook
}

func NewCache(log logrus.FieldLogger, m *metrics.Metrics) *Cache {
	return &Cache{entries: map[string]cached{}, log: logging.OrDiscard(log), metrics: m}
}

// Get returns the workbook cached for key, or calls load and caches its result.
func (c *Cache) Get(key Key, load func() (*Workbook, error)) (*Workbook, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key.Source]; ok {
		if entry.version == key.Version {
			c.mu.Unlock()
			c.metrics.CacheHit()
			return entry.workbook, nil
		}
		delete(c.entries, key.Source)
		c.metrics.CacheEviction()
		c.log.WithField("source", key.Source).Debug("cached workbook is stale")
	}
	c.mu.Unlock()
	c.metrics.CacheMiss()

	wb, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key.Source] = cached{version: key.Version, workbook: wb}
	c.mu.Unlock()
	return wb, nil
}

// LoadPath reads the workbook at path unless the cached copy has the same modification
// time and size.
func (c *Cache) LoadPath(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat workbook: %w", err)
	}
	return c.Get(PathKey(path, info.ModTime(), info.Size()), func() (*Workbook, error) {
		started := time.Now()
		wb, err := ReadFile(path)
		c.metrics.Load("path", started, err)
		if err == nil {
			c.observe(path, wb)
		}
		return wb, err
	})
}

// LoadBytes reads uploaded content unless an identical upload under name is cached.
func (c *Cache) LoadBytes(name string, content []byte) (*Workbook, error) {
	return c.Get(ContentKey(name, content), func() (*Workbook, error) {
		started := time.Now()
		wb, err := Read(bytes.NewReader(content))
		c.metrics.Load("upload", started, err)
		if err == nil {
			c.observe(name, wb)
		}
		return wb, err
	})
}

func (c *Cache) observe(src string, wb *Workbook) {
	fields := logrus.Fields{"source": src}
	for name, f := range wb.Sheets() {
		c.metrics.Rows(name, f.Len())
		fields[name] = f.Len()
	}
	c.log.WithFields(fields).Info("workbook loaded")
}

// Invalidate drops the entry for source and reports whether there was one.
func (c *Cache) Invalidate(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[source]; !ok {
		return false
	}
	delete(c.entries, source)
	c.metrics.CacheEviction()
	return true
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]cached{}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
