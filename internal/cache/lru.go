// Package cache provides caching utilities shared across pipeline runs.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/gojq"
)

// QueryCache is a thread-safe LRU of compiled jq programs keyed by expression
// text. It holds compiled code only, never sample data, so sharing it across
// independent runs cannot leak one caller's input into another's output.
type QueryCache struct {
	cache *lru.Cache[string, *gojq.Code]
}

// NewQueryCache creates a cache holding at most maxItems compiled programs.
func NewQueryCache(maxItems int) (*QueryCache, error) {
	c, err := lru.New[string, *gojq.Code](maxItems)
	if err != nil {
		return nil, err
	}
	return &QueryCache{cache: c}, nil
}

// Compile returns the compiled program for expression, compiling and caching
// it on a miss. A nil receiver compiles without caching.
func (c *QueryCache) Compile(expression string) (*gojq.Code, error) {
	if c != nil {
		if code, ok := c.cache.Get(expression); ok {
			return code, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	if c != nil {
		c.cache.Add(expression, code)
	}
	return code, nil
}

// Len returns the current number of cached programs.
func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
