package content

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry pairs a cached Payload with its expiry, mirroring the
// teacher's permissionCache item/TTL shape but backed by a bounded LRU
// instead of a plain map, since a content tree can have far more cacheable
// keys (one per username × directory) than a permission cache ever would.
type cacheEntry struct {
	payload   Payload
	expiresAt time.Time
}

// Cache sits in front of Walker, keyed by "<username>:<relative dir>".
// Invalidated wholesale on any filesystem change under media_source
// (fsnotify), and individually on TTL expiry.
type Cache struct {
	lru *lru.Cache[string, cacheEntry]
	ttl time.Duration
}

func NewCache(size int, ttl time.Duration) (*Cache, error) {
	l, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (Payload, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return Payload{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return Payload{}, false
	}
	return entry.payload, true
}

func (c *Cache) Set(key string, payload Payload) {
	c.lru.Add(key, cacheEntry{payload: payload, expiresAt: time.Now().Add(c.ttl)})
}

// Purge drops every cached entry, used when a filesystem watcher observes
// a change under media_source.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Watcher invalidates a Cache whenever media_source changes on disk, so a
// newly uploaded or deleted file is reflected without waiting out the TTL.
type Watcher struct {
	fsw   *fsnotify.Watcher
	cache *Cache
}

// NewWatcher starts watching root (recursively: every directory seen at
// watcher construction time, plus any directory created afterward) and
// purges cache on any event.
func NewWatcher(root string, cache *Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, cache: cache}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return walkDirs(root, func(dir string) error {
		return w.fsw.Add(dir)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.cache.Purge()
			if event.Op&fsnotify.Create != 0 {
				if info, err := statIsDir(event.Name); err == nil && info {
					w.fsw.Add(event.Name)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("content watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
