package search_test

import (
	"context"
	"sync"
	"time"

	"shoplite/internal/domain"
	"shoplite/internal/search"
)

// allFieldNames mirrors the published index schema contract.
var allFieldNames = []string{
	"name", "slug", "price", "salesCount", "rating",
	"location", "status", "systemTags", "createdAt",
}

type storedSuggestion struct {
	score   float64
	payload string
}

// fakeIndex is an in-memory IndexStore with injectable failures, standing in
// for the external engine.
type fakeIndex struct {
	mu sync.Mutex

	fields    []string
	fieldsErr error

	docs map[string]map[string]any
	sugs map[string]map[string]storedSuggestion
	kv   map[string]string
	zset map[string]map[string]float64

	searchTotal    int64
	searchPayloads []string
	searchErr      error

	lastQuery string
	lastOpt   search.SearchOptions

	created, dropped, clearedSugs bool
	putErr                        error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		docs: map[string]map[string]any{},
		sugs: map[string]map[string]storedSuggestion{},
		kv:   map[string]string{},
		zset: map[string]map[string]float64{},
	}
}

func (f *fakeIndex) IndexFields(context.Context, string) ([]string, error) {
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	return f.fields, nil
}

func (f *fakeIndex) CreateIndex(context.Context, string, string, []search.FieldDef) error {
	f.created = true
	return nil
}

func (f *fakeIndex) DropIndex(context.Context, string) error {
	f.dropped = true
	return nil
}

func (f *fakeIndex) PutDocs(_ context.Context, docs []search.Doc) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs[d.Key] = d.Fields
	}
	return nil
}

func (f *fakeIndex) DeleteDoc(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, key)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _, query string, opt search.SearchOptions) (int64, []string, error) {
	f.mu.Lock()
	f.lastQuery = query
	f.lastOpt = opt
	f.mu.Unlock()
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return f.searchTotal, f.searchPayloads, nil
}

func (f *fakeIndex) AddSuggestion(_ context.Context, dict, text string, score float64, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sugs[dict] == nil {
		f.sugs[dict] = map[string]storedSuggestion{}
	}
	f.sugs[dict][text] = storedSuggestion{score: score, payload: payload}
	return nil
}

func (f *fakeIndex) DeleteSuggestion(_ context.Context, dict, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sugs[dict], text)
	return nil
}

func (f *fakeIndex) ClearSuggestions(_ context.Context, dict string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearedSugs = true
	delete(f.sugs, dict)
	return nil
}

func (f *fakeIndex) Suggest(_ context.Context, dict, prefix string, max int) ([]search.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []search.Suggestion
	for text, s := range f.sugs[dict] {
		if len(out) < max {
			out = append(out, search.Suggestion{Text: text, Payload: s.payload})
		}
	}
	return out, nil
}

func (f *fakeIndex) CacheGet(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", search.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeIndex) CacheSet(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value
	return nil
}

func (f *fakeIndex) TopScores(_ context.Context, key string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.zset[key]
	var out []string
	for m := range members {
		out = append(out, m)
	}
	// best-first by score
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if members[out[j]] > members[out[i]] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIndex) BumpScore(_ context.Context, key, member string, by float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zset[key] == nil {
		f.zset[key] = map[string]float64{}
	}
	f.zset[key][member] += by
	return nil
}

// fakeSource is a canned Source.
type fakeSource struct {
	items   []domain.CatalogItem
	listErr error

	filterTotal int64
	filterRows  []domain.CatalogItem
	filterErr   error
	lastFilter  domain.Query
}

func (f *fakeSource) ListForIndex() ([]domain.CatalogItem, error) {
	return f.items, f.listErr
}

func (f *fakeSource) GetFull(id string) (domain.CatalogItem, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.CatalogItem{}, domain.ErrNotFound
}

func (f *fakeSource) Filter(q domain.Query) (int64, []domain.CatalogItem, error) {
	f.lastFilter = q
	if f.filterErr != nil {
		return 0, nil, f.filterErr
	}
	return f.filterTotal, f.filterRows, nil
}

func activeItem(id, name string) domain.CatalogItem {
	return domain.CatalogItem{
		ID: id, Name: name, Slug: id, Price: 100000, Stock: 5,
		SalesCount: 10, Rating: 4.5, Status: domain.StatusActive,
		RawTags: "tag-a,tag-b", ImagesJSON: `["` + id + `/1.jpg"]`,
		ShopID: "shop-1", ShopCity: "Hanoi",
		CreatedAt: "2024-03-01 10:00:00",
	}
}
