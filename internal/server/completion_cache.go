// Package server provides completion caching for performance optimization.
package server

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CompletionCache caches completion items per document. Entries are keyed
// by a hash of the document text, so an unchanged document rehydrates the
// cache even after its version number moves.
type CompletionCache struct {
	// Per-document caches
	documentCaches map[string]*DocumentCompletionCache

	mu sync.RWMutex
}

// DocumentCompletionCache stores cached completion items for a specific document.
type DocumentCompletionCache struct {
	// Global symbols from this document
	globalSymbols []protocol.CompletionItem

	// Keywords cached for this document
	keywords []protocol.CompletionItem

	// Last time the cache was updated
	lastUpdate time.Time

	// Hash of the document text the cache was built from
	contentHash uint64

	mu sync.RWMutex
}

// NewCompletionCache creates a new completion cache.
func NewCompletionCache() *CompletionCache {
	return &CompletionCache{
		documentCaches: make(map[string]*DocumentCompletionCache),
	}
}

// CachedCompletionItems represents a set of cached completion items.
type CachedCompletionItems struct {
	Keywords      []protocol.CompletionItem
	GlobalSymbols []protocol.CompletionItem
}

// ContentHash hashes document text for cache keying.
func ContentHash(text string) uint64 {
	return xxhash.Sum64String(text)
}

// GetCachedItems returns the cached completion items for a document, or nil
// when the cache is missing or was built from different text.
func (c *CompletionCache) GetCachedItems(uri string, contentHash uint64) *CachedCompletionItems {
	c.mu.RLock()
	docCache, exists := c.documentCaches[uri]
	c.mu.RUnlock()

	if !exists {
		return nil
	}

	docCache.mu.RLock()
	defer docCache.mu.RUnlock()

	if docCache.contentHash != contentHash {
		return nil
	}

	return &CachedCompletionItems{
		Keywords:      docCache.keywords,
		GlobalSymbols: docCache.globalSymbols,
	}
}

// SetCachedItems caches completion items for a document.
func (c *CompletionCache) SetCachedItems(uri string, contentHash uint64, items *CachedCompletionItems) {
	c.mu.Lock()
	docCache, exists := c.documentCaches[uri]
	if !exists {
		docCache = &DocumentCompletionCache{}
		c.documentCaches[uri] = docCache
	}
	c.mu.Unlock()

	docCache.mu.Lock()
	defer docCache.mu.Unlock()

	docCache.keywords = items.Keywords
	docCache.globalSymbols = items.GlobalSymbols
	docCache.contentHash = contentHash
	docCache.lastUpdate = time.Now()
}

// InvalidateDocument drops the cache for a document.
func (c *CompletionCache) InvalidateDocument(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.documentCaches, uri)
}
