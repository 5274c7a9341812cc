package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/pkg/cache"
)

// Cache memoizes extractions across the jobs of one batch. Several profiles
// of one study read the same companion file; parsing it once per batch is
// enough. Cached results are shared, so callers must treat the tables as
// read-only, which they already are for companion sources.
type Cache struct {
	lru *cache.Cache[*Result]
}

// NewCache builds an extraction cache holding at most capacity parsed files.
func NewCache(capacity int) (*Cache, error) {
	lru, err := cache.New[*Result](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: lru}, nil
}

// Extract behaves like the package-level Extract but serves repeated calls
// for the same file and tag list from memory. The key covers the file's size
// and mtime, so a rewritten input is re-parsed.
func (c *Cache) Extract(path string, tags []tag.Tag, opts Options) (*Result, error) {
	// Forced declarations rewrite the table per profile; memoizing them
	// would leak one profile's overrides into another.
	if len(opts.Forced) > 0 {
		return Extract(path, tags, opts)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapMissing(errors.ErrMissingInput, "Extractor", "Extract", "stat "+path)
	}

	key := cacheKey(path, info.Size(), info.ModTime().UnixNano(), tags, opts)
	if res, ok := c.lru.Get(key); ok {
		return res, nil
	}

	res, err := Extract(path, tags, opts)
	if err != nil {
		return nil, err
	}
	c.lru.Set(key, res)
	return res, nil
}

// Stats snapshots the underlying cache counters.
func (c *Cache) Stats() cache.Stats {
	return c.lru.Stats()
}

func cacheKey(path string, size, mtime int64, tags []tag.Tag, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%d|%t|%p|", path, size, mtime, opts.FloatPayload, opts.Dictionary)
	for _, t := range tags {
		fmt.Fprintf(&b, "%04X%04X,", t.Group, t.Element)
	}
	return b.String()
}
