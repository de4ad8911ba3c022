package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/SatishMiral/chrome-extension-backend/models"
)

const (
	sweepInterval = 5 * time.Minute
	maxRetention  = time.Hour
)

type entry struct {
	result    *models.ExtractionResult
	createdAt time.Time
}

// Cache keeps recent comparison results in memory. Lookups are opt-in per
// request through a max age. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time

	stop chan struct{}
	once sync.Once
}

// New creates a Cache holding at most maxEntries results. A background
// sweep drops entries older than an hour; call Close to stop it.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.sweepLoop()
	return c
}

// Key identifies a comparison by everything that shapes its result.
func Key(direction models.Direction, url string, mode models.Mode, withImage bool) string {
	h := sha256.New()
	h.Write([]byte(direction))
	h.Write([]byte("|"))
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(mode))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatBool(withImage)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the result stored under key if it is younger than maxAgeMs
// milliseconds. maxAgeMs <= 0 always misses.
func (c *Cache) Get(key string, maxAgeMs int) (*models.ExtractionResult, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	return e.result, true
}

// Set stores res under key. At capacity an arbitrary entry is evicted.
func (c *Cache) Set(key string, res *models.ExtractionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		// Map iteration order is random.
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{result: res, createdAt: c.now()}
}

// Len returns the number of stored results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background sweep.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	cutoff := c.now().Add(-maxRetention)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}
