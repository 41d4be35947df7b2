package cache

import (
	"sync/atomic"

	"github.com/FocuswithJustin/versemem/core/corpus"
)

// ByteSizeEstimator is implemented by values that can report their
// approximate size.
type ByteSizeEstimator interface {
	EstimateBytes() int64
}

// CorpusCache memoizes parsed corpora by source id.
//
// Concurrent GetOrBuild calls for the same uncached source may each build;
// the last Put wins. Builds are pure, so the duplicates are equal.
type CorpusCache struct {
	cache Cache[string, *corpus.Corpus]
	bytes atomic.Int64
}

// NewCorpusCache creates a corpus cache. A caller-supplied OnEvict still
// runs after the cache's own size accounting.
func NewCorpusCache(config Config) *CorpusCache {
	c := &CorpusCache{}
	onEvict := config.OnEvict
	config.OnEvict = func(key, value any) {
		if est, ok := value.(ByteSizeEstimator); ok {
			c.bytes.Add(-est.EstimateBytes())
		}
		if onEvict != nil {
			onEvict(key, value)
		}
	}
	c.cache = NewLRUCache[string, *corpus.Corpus](config)
	return c
}

// NewDefaultCorpusCache creates a corpus cache with DefaultConfig.
func NewDefaultCorpusCache() *CorpusCache {
	return NewCorpusCache(DefaultConfig())
}

// Get returns the cached corpus for sourceID.
func (c *CorpusCache) Get(sourceID string) (*corpus.Corpus, bool) {
	return c.cache.Get(sourceID)
}

// Put stores corp under sourceID, replacing any previous corpus.
func (c *CorpusCache) Put(sourceID string, corp *corpus.Corpus) {
	if corp == nil {
		return
	}
	c.bytes.Add(corp.EstimateBytes())
	c.cache.Put(sourceID, corp)
}

// GetOrBuild returns the cached corpus for sourceID, or runs build and
// caches its result. hit reports whether the cache answered. Build errors
// are returned unchanged and nothing is cached.
func (c *CorpusCache) GetOrBuild(sourceID string, build func() (*corpus.Corpus, error)) (corp *corpus.Corpus, hit bool, err error) {
	if corp, ok := c.cache.Get(sourceID); ok {
		return corp, true, nil
	}

	corp, err = build()
	if err != nil {
		return nil, false, err
	}
	c.Put(sourceID, corp)
	return corp, false, nil
}

// Remove drops sourceID from the cache.
func (c *CorpusCache) Remove(sourceID string) {
	c.cache.Remove(sourceID)
}

// Clear drops every cached corpus.
func (c *CorpusCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached corpora.
func (c *CorpusCache) Len() int {
	return c.cache.Len()
}

// SourceIDs returns the cached source ids, most recently used first.
func (c *CorpusCache) SourceIDs() []string {
	return c.cache.Keys()
}

// Stats returns cache statistics, with TotalBytes estimated from verse text.
func (c *CorpusCache) Stats() Stats {
	s := c.cache.Stats()
	s.TotalBytes = c.bytes.Load()
	return s
}
