package segmenter

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hazyhaar/seamlis/vtree"
)

// PageContext is what is remembered about one page between calls: its
// latest parse session, the tree that session was built on, and the live
// page it came from, if any.
type PageContext struct {
	URL     string
	Session *ParseSession
	Tree    vtree.Tree
	// Page is closed when the context is evicted.
	Page Page
}

// ContextCache keeps the most recently used page contexts, keyed by URL.
type ContextCache struct {
	lru    *lru.Cache[string, *PageContext]
	logger *slog.Logger
}

// NewContextCache returns a cache holding up to size contexts.
func NewContextCache(size int, logger *slog.Logger) (*ContextCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ContextCache{logger: logger}
	l, err := lru.NewWithEvict[string, *PageContext](size, c.evicted)
	if err != nil {
		return nil, fmt.Errorf("segmenter: context cache: %w", err)
	}
	c.lru = l
	return c, nil
}

func (c *ContextCache) evicted(url string, pc *PageContext) {
	c.logger.Debug("segmenter: page context evicted", "url", url)
	if pc.Page == nil {
		return
	}
	if err := pc.Page.Close(); err != nil {
		c.logger.Warn("segmenter: close page", "url", url, "error", err)
	}
}

// Get returns the context of url.
func (c *ContextCache) Get(url string) (*PageContext, bool) {
	return c.lru.Get(url)
}

// Put stores pc under its URL.
func (c *ContextCache) Put(pc *PageContext) {
	c.lru.Add(pc.URL, pc)
}

// Remove drops the context of url, closing its page.
func (c *ContextCache) Remove(url string) bool {
	return c.lru.Remove(url)
}

// Len returns the number of cached contexts.
func (c *ContextCache) Len() int { return c.lru.Len() }

// Close drops every context, closing their pages.
func (c *ContextCache) Close() {
	c.lru.Purge()
}
