package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"shoplite/internal/domain"
	applog "shoplite/internal/log"
)

// ResultTTL is how long a cached result page stays valid.
const ResultTTL = time.Minute

const keySeparator = "::"

// ResultCache holds fully-formed result pages keyed by a hash of the request
// parameters. Values are always recomputed whole, so there is no
// read-modify-write race; TTL is the only eviction.
type ResultCache struct {
	idx IndexStore
	ttl time.Duration
}

func NewResultCache(idx IndexStore) *ResultCache {
	return &ResultCache{idx: idx, ttl: ResultTTL}
}

// Key builds a deterministic key from the full parameter set.
func (c *ResultCache) Key(q domain.Query) string {
	parts := []string{
		"search",
		fmt.Sprint(q.Page), fmt.Sprint(q.Limit),
		q.Search, q.Tag, q.CategoryID, q.CategorySlug, q.BrandID,
		floatPart(q.MinPrice), floatPart(q.MaxPrice), floatPart(q.Rating),
		q.Sort,
		strings.Join(q.Locations, ","),
	}
	sum := xxhash.Sum64String(strings.Join(parts, keySeparator))
	return fmt.Sprintf("cache:search:%x", sum)
}

func floatPart(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (c *ResultCache) Get(ctx context.Context, key string) (domain.ProductPage, bool) {
	raw, err := c.idx.CacheGet(ctx, key)
	if err != nil {
		if err != ErrCacheMiss {
			applog.Error(nil, "cache.get", err, map[string]any{"key": key})
		}
		return domain.ProductPage{}, false
	}
	var page domain.ProductPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return domain.ProductPage{}, false
	}
	return page, true
}

func (c *ResultCache) Set(ctx context.Context, key string, page domain.ProductPage) {
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.idx.CacheSet(ctx, key, string(raw), c.ttl); err != nil {
		applog.Error(nil, "cache.set", err, map[string]any{"key": key})
	}
}
