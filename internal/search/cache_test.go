package search_test

import (
	"context"
	"testing"

	"shoplite/internal/domain"
	"shoplite/internal/search"
)

func TestCacheKeyDeterministic(t *testing.T) {
	cache := search.NewResultCache(newFakeIndex())
	min := 100000.0
	q := domain.Query{Page: 2, Limit: 20, Tag: "cotton", MinPrice: &min, Locations: []string{"Hanoi"}}

	k1 := cache.Key(q)
	k2 := cache.Key(q)
	if k1 != k2 {
		t.Fatalf("same request hashed differently: %q vs %q", k1, k2)
	}

	q2 := q
	q2.Page = 3
	if cache.Key(q2) == k1 {
		t.Fatal("different page produced the same key")
	}
	q3 := q
	otherMin := 100001.0
	q3.MinPrice = &otherMin
	if cache.Key(q3) == k1 {
		t.Fatal("different price filter produced the same key")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	idx := newFakeIndex()
	cache := search.NewResultCache(idx)
	page := domain.ProductPage{
		Data: []domain.ItemSummary{{ID: "p-1", Name: "Ao Thun", Price: 120000}},
		Meta: domain.PageMeta(1, 1, 20),
	}

	key := cache.Key(domain.Query{Page: 1, Limit: 20})
	if _, ok := cache.Get(context.Background(), key); ok {
		t.Fatal("unexpected hit before set")
	}
	cache.Set(context.Background(), key, page)
	got, ok := cache.Get(context.Background(), key)
	if !ok {
		t.Fatal("miss after set")
	}
	if got.Meta != page.Meta || len(got.Data) != 1 || got.Data[0].ID != "p-1" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}
