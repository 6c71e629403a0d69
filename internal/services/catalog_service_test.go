package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shoplite/internal/domain"
	"shoplite/internal/repos"
	"shoplite/internal/search"
	"shoplite/internal/services"
)

// stubIndex implements just enough of IndexStore for the service layer:
// the key-value caches, ranked sets and suggestions.
type stubIndex struct {
	mu   sync.Mutex
	kv   map[string]string
	zset map[string]map[string]float64
	sugs map[string]string
}

func newStubIndex() *stubIndex {
	return &stubIndex{kv: map[string]string{}, zset: map[string]map[string]float64{}, sugs: map[string]string{}}
}

func (s *stubIndex) IndexFields(context.Context, string) ([]string, error) {
	return nil, search.ErrNoIndex
}
func (s *stubIndex) CreateIndex(context.Context, string, string, []search.FieldDef) error { return nil }
func (s *stubIndex) DropIndex(context.Context, string) error                              { return nil }
func (s *stubIndex) PutDocs(context.Context, []search.Doc) error                          { return nil }
func (s *stubIndex) DeleteDoc(context.Context, string) error                              { return nil }
func (s *stubIndex) Search(context.Context, string, string, search.SearchOptions) (int64, []string, error) {
	return 0, nil, errors.New("no search in stub")
}
func (s *stubIndex) AddSuggestion(_ context.Context, _, text string, _ float64, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sugs[text] = payload
	return nil
}
func (s *stubIndex) DeleteSuggestion(_ context.Context, _, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sugs, text)
	return nil
}
func (s *stubIndex) ClearSuggestions(context.Context, string) error { return nil }
func (s *stubIndex) Suggest(_ context.Context, _, prefix string, _ int) ([]search.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []search.Suggestion
	for text, payload := range s.sugs {
		out = append(out, search.Suggestion{Text: text, Payload: payload})
	}
	_ = prefix
	return out, nil
}
func (s *stubIndex) CacheGet(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	if !ok {
		return "", search.ErrCacheMiss
	}
	return v, nil
}
func (s *stubIndex) CacheSet(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}
func (s *stubIndex) TopScores(_ context.Context, key string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.zset[key]
	var out []string
	for m := range members {
		out = append(out, m)
	}
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
func (s *stubIndex) BumpScore(_ context.Context, key, member string, by float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zset[key] == nil {
		s.zset[key] = map[string]float64{}
	}
	s.zset[key][member] += by
	return nil
}

func newService(t *testing.T) (*services.CatalogService, *stubIndex) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	prodRepo := repos.NewProductRepo(db)
	idx := newStubIndex()
	syncer := search.NewSyncer(prodRepo, idx)
	schema := search.NewSchemaManager(idx, syncer)
	query := search.NewQueryService(schema, idx, prodRepo, search.NewResultCache(idx))
	svc := services.NewCatalogService(prodRepo, repos.NewOrderRepo(db), repos.NewCategoryRepo(db), query, idx)
	return svc, idx
}

func TestGetProductReadThrough(t *testing.T) {
	svc, idx := newService(t)

	d, err := svc.GetProduct(context.Background(), "ao-thun-basic")
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "p-ao-thun" || d.ShopName != "Hanoi Outfitters" || len(d.Options) != 2 {
		t.Fatalf("detail wrong: %+v", d)
	}
	if d.Location != "Hanoi" {
		t.Fatalf("location not mapped: %q", d.Location)
	}
	if _, ok := idx.kv["cache:product:ao-thun-basic"]; !ok {
		t.Fatal("detail not populated into cache")
	}

	// second read comes from cache: poison the backing row to prove it
	idx.kv["cache:product:ao-thun-basic"] = `{"id":"cached","name":"Cached"}`
	d2, err := svc.GetProduct(context.Background(), "ao-thun-basic")
	if err != nil {
		t.Fatal(err)
	}
	if d2.ID != "cached" {
		t.Fatalf("cache not consulted: %+v", d2)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.GetProduct(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBoughtTogetherCached(t *testing.T) {
	svc, idx := newService(t)

	out, err := svc.BoughtTogether(context.Background(), "p-ao-thun", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 items, got %d", len(out))
	}
	if _, ok := idx.kv["cache:together:p-ao-thun"]; !ok {
		t.Fatal("co-occurrence result not cached")
	}
}

func TestFeedFallsBackToTrending(t *testing.T) {
	svc, _ := newService(t)

	// trending signal only; the user has none
	if err := svc.RecordView(context.Background(), "", "p-tote"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordView(context.Background(), "", "p-tote"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordView(context.Background(), "", "p-sneaker"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.Feed(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "p-tote" {
		t.Fatalf("trending fallback wrong: %+v", out)
	}

	// once the user has personal signal it wins
	if err := svc.RecordView(context.Background(), "user-1", "p-ao-thun"); err != nil {
		t.Fatal(err)
	}
	out, err = svc.Feed(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "p-ao-thun" {
		t.Fatalf("personal feed wrong: %+v", out)
	}
}
