package hint

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachingResolver memoizes remote hints per strategy and landed combination
type CachingResolver struct {
	inner Resolver
	lru   *expirable.LRU[string, Hint]
}

// NewCachingResolver caches up to size hints for ttl
func NewCachingResolver(inner Resolver, size int, ttl time.Duration) *CachingResolver {
	if size <= 0 {
		size = 1
	}
	return &CachingResolver{
		inner: inner,
		lru:   expirable.NewLRU[string, Hint](size, nil, ttl),
	}
}

func cacheKey(req Request) string {
	return req.Strategy + "|" + strings.Join(req.Landed, ",")
}

// Resolve serves from cache; only remote hints are stored so fallbacks retry next time
func (c *CachingResolver) Resolve(ctx context.Context, req Request) (Result, error) {
	key := cacheKey(req)
	if h, ok := c.lru.Get(key); ok {
		return Result{Hint: h, Source: SourceCached}, nil
	}

	res, err := c.inner.Resolve(ctx, req)
	if err != nil {
		return res, err
	}
	if res.Source == SourceRemote {
		c.lru.Add(key, res.Hint)
	}
	return res, nil
}

// Len is the number of cached hints
func (c *CachingResolver) Len() int {
	return c.lru.Len()
}

// Purge drops every cached hint
func (c *CachingResolver) Purge() {
	c.lru.Purge()
}
