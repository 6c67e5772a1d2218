package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"testgen/internal/domain"
	"testgen/internal/port"
)

// SymbolCache is a bounded LRU of IDE symbol lookups with a TTL.
type SymbolCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
}

type cacheEntry struct {
	nodes     []domain.SymbolNode
	locations []domain.Location
	timestamp time.Time
	gen       uint64
}

func NewSymbolCache(maxSize int, ttl time.Duration) *SymbolCache {
	if maxSize <= 0 {
		maxSize = 512
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SymbolCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func symbolsKey(absPath string) string {
	return "symbols:" + absPath
}

func locationsKey(method, absPath string, line, character int) string {
	return fmt.Sprintf("%s:%s:%d:%d", method, absPath, line, character)
}

func (c *SymbolCache) get(key string) (*cacheEntry, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	currentGen := c.gen
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.gen != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry, true
}

func (c *SymbolCache) put(key string, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.timestamp = time.Now()
	entry.gen = c.gen

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry, e.g. after files were edited.
func (c *SymbolCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

func (c *SymbolCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SymbolCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SymbolCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SymbolCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedSymbolService memoizes a SymbolService for the lifetime of a run.
// The finders ask for the same document symbols and definitions repeatedly.
type CachedSymbolService struct {
	service port.SymbolService
	cache   *SymbolCache
}

func NewCachedSymbolService(service port.SymbolService, cache *SymbolCache) *CachedSymbolService {
	if cache == nil {
		cache = NewSymbolCache(0, 0)
	}
	return &CachedSymbolService{
		service: service,
		cache:   cache,
	}
}

func (s *CachedSymbolService) DocumentSymbols(ctx context.Context, absPath string) ([]domain.SymbolNode, error) {
	key := symbolsKey(absPath)
	if entry, hit := s.cache.get(key); hit {
		return entry.nodes, nil
	}

	nodes, err := s.service.DocumentSymbols(ctx, absPath)
	if err != nil {
		return nil, err
	}

	s.cache.put(key, &cacheEntry{nodes: nodes})
	return nodes, nil
}

func (s *CachedSymbolService) FindTypeDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	return s.locations(ctx, "typedef", absPath, line, character, s.service.FindTypeDefLocations)
}

func (s *CachedSymbolService) FindDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	return s.locations(ctx, "def", absPath, line, character, s.service.FindDefLocations)
}

func (s *CachedSymbolService) locations(
	ctx context.Context,
	method, absPath string,
	line, character int,
	find func(context.Context, string, int, int) ([]domain.Location, error),
) ([]domain.Location, error) {
	key := locationsKey(method, absPath, line, character)
	if entry, hit := s.cache.get(key); hit {
		return entry.locations, nil
	}

	locs, err := find(ctx, absPath, line, character)
	if err != nil {
		return nil, err
	}

	s.cache.put(key, &cacheEntry{locations: locs})
	return locs, nil
}
