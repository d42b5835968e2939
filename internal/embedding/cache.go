package embedding

import "sync"

type cacheKey struct {
	lang string
	text string
}

// Cache is an append-only vector cache keyed by canonical language plus
// normalized text. Inputs are short deduplicated strings, so there is no
// eviction for the process lifetime. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	vectors map[cacheKey][]float32
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{vectors: make(map[cacheKey][]float32)}
}

// Get returns the cached vector for (lang, text), if present.
func (c *Cache) Get(lang, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vectors[cacheKey{lang, text}]
	return v, ok
}

// Put stores a vector. Later writes for the same key win, which is harmless
// because embedding is deterministic per (text, language, model).
func (c *Cache) Put(lang, text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[cacheKey{lang, text}] = vector
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vectors)
}
