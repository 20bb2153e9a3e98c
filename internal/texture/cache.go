// Package texture resolves image references to decoded images: upload
// sniffing and decoding, an asset index, a shared cache and a file watcher
// that invalidates it.
package texture

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a reference matches no asset or upload.
var ErrNotFound = errors.New("texture: not found")

// UploadPrefix marks references to in-memory uploads.
const UploadPrefix = "upload:"

// Resolver resolves an image reference to a decoded image.
type Resolver interface {
	Resolve(ref string) (*image.NRGBA, error)
}

// Cache is a concurrency-safe image cache. Failed loads are cached too until
// the entry is invalidated.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*cacheEntry // keyed by resolved path or upload ref
	uploads map[string]*image.NRGBA
	index   *Index
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a new image cache backed by the given index.
func NewCache(index *Index) *Cache {
	if index == nil {
		index = &Index{entries: map[string]string{}}
	}
	return &Cache{
		items:   make(map[string]*cacheEntry),
		uploads: make(map[string]*image.NRGBA),
		index:   index,
	}
}

// Upload decodes an uploaded payload and stores it under a new reference,
// which is returned.
func (c *Cache) Upload(name string, data []byte) (string, error) {
	img, err := Decode(data, name)
	if err != nil {
		return "", err
	}
	ref := UploadPrefix + name
	c.mu.Lock()
	c.uploads[ref] = img
	c.mu.Unlock()
	return ref, nil
}

// Resolve loads and caches an image by reference.
func (c *Cache) Resolve(ref string) (*image.NRGBA, error) {
	if strings.HasPrefix(ref, UploadPrefix) {
		c.mu.RLock()
		img, ok := c.uploads[ref]
		c.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return img, nil
	}

	path, ok := c.index.ResolvePath(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := LoadImage(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}

// Path returns the file backing ref, if it is a file asset.
func (c *Cache) Path(ref string) (string, bool) {
	if strings.HasPrefix(ref, UploadPrefix) {
		return "", false
	}
	return c.index.ResolvePath(ref)
}

// InvalidatePath drops the cached entry for a file so the next Resolve
// reloads it. It reports whether an entry was dropped.
func (c *Cache) InvalidatePath(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[path]
	delete(c.items, path)
	return ok
}

// Loaded returns the cached file paths in sorted order.
func (c *Cache) Loaded() []string {
	c.mu.RLock()
	paths := make([]string, 0, len(c.items))
	for p := range c.items {
		paths = append(paths, p)
	}
	c.mu.RUnlock()
	sort.Strings(paths)
	return paths
}
