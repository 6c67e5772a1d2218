package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalCache is a small JSON key/value file kept per workflow, e.g.
// <workflow dir>/local_cache/<name>.json. It is loaded once and rewritten
// whenever a value changes.
type LocalCache struct {
	mu     sync.Mutex
	name   string
	path   string
	values map[string]string
}

// OpenLocalCache loads dir/<name>.json, creating dir if needed. A missing file
// starts an empty cache.
func OpenLocalCache(dir, name string) (*LocalCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	c := &LocalCache{
		name:   name,
		path:   filepath.Join(dir, name+".json"),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache %s: %w", c.path, err)
	}
	if err := json.Unmarshal(data, &c.values); err != nil {
		return nil, fmt.Errorf("failed to parse cache %s: %w", c.path, err)
	}
	return c, nil
}

func (c *LocalCache) Name() string {
	return c.name
}

func (c *LocalCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores value and saves the file if the value changed.
func (c *LocalCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.values[key]; ok && old == value {
		return nil
	}
	c.values[key] = value
	return c.save()
}

func (c *LocalCache) save() error {
	data, err := json.MarshalIndent(c.values, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
