package search_test

import (
	"context"
	"reflect"
	"testing"

	"shoplite/internal/domain"
	"shoplite/internal/search"
)

func TestFullSyncIdempotent(t *testing.T) {
	idx := newFakeIndex()
	src := &fakeSource{items: []domain.CatalogItem{
		activeItem("p-1", "Ao Thun"),
		activeItem("p-2", "Sneaker"),
	}}
	syncer := search.NewSyncer(src, idx)

	n, err := syncer.FullSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("synced %d, want 2", n)
	}
	first := cloneDocs(idx.docs)

	if _, err := syncer.FullSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, idx.docs) {
		t.Fatalf("second run changed index content:\n%v\nvs\n%v", first, idx.docs)
	}
	if !idx.clearedSugs {
		t.Fatal("suggestion dictionary was not cleared before repopulating")
	}
}

func cloneDocs(in map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(in))
	for k, v := range in {
		fields := make(map[string]any, len(v))
		for fk, fv := range v {
			fields[fk] = fv
		}
		out[k] = fields
	}
	return out
}

func TestFullSyncEntryContent(t *testing.T) {
	idx := newFakeIndex()
	item := activeItem("p-1", "Ao Thun")
	item.RawTags = `["  http://x?q=shoes  ","shoes","{bad}tag"]`
	item.ShopCity = "" // no city: location falls back to the sentinel
	src := &fakeSource{items: []domain.CatalogItem{item}}

	if _, err := search.NewSyncer(src, idx).FullSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	doc, ok := idx.docs["product:p-1"]
	if !ok {
		t.Fatalf("entry missing; have %v", idx.docs)
	}
	if doc["systemTags"] != "shoes,bad tag" {
		t.Fatalf("tags not sanitized: %v", doc["systemTags"])
	}
	if doc["location"] != search.UnknownLocation {
		t.Fatalf("location sentinel missing: %v", doc["location"])
	}
	if doc["status"] != domain.StatusActive {
		t.Fatalf("status field wrong: %v", doc["status"])
	}
	if doc["createdAt"] == int64(0) {
		t.Fatal("createdAt not derived from the record timestamp")
	}
	if payload, _ := doc["payload"].(string); payload == "" {
		t.Fatal("JSON mirror payload missing")
	}
}

func TestSuggestionScoreFloor(t *testing.T) {
	idx := newFakeIndex()
	item := activeItem("p-zero", "Fresh Item")
	item.SalesCount = 0
	src := &fakeSource{items: []domain.CatalogItem{item}}

	if _, err := search.NewSyncer(src, idx).FullSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, ok := idx.sugs[search.SuggestDict]["Fresh Item"]
	if !ok {
		t.Fatal("suggestion missing")
	}
	if s.score != 1 {
		t.Fatalf("zero-sales score = %v, want floor of 1", s.score)
	}
}

func TestSyncOneDeactivation(t *testing.T) {
	idx := newFakeIndex()
	item := activeItem("p-1", "Ao Thun")
	src := &fakeSource{items: []domain.CatalogItem{item}}
	syncer := search.NewSyncer(src, idx)

	if err := syncer.SyncOne(context.Background(), "p-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.docs["product:p-1"]; !ok {
		t.Fatal("active item not indexed")
	}

	src.items[0].Status = domain.StatusInactive
	if err := syncer.SyncOne(context.Background(), "p-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.docs["product:p-1"]; ok {
		t.Fatal("deactivated item still indexed")
	}
	if _, ok := idx.sugs[search.SuggestDict]["Ao Thun"]; ok {
		t.Fatal("deactivated item still suggested")
	}
}

func TestSyncOneMissingItemIsNoop(t *testing.T) {
	idx := newFakeIndex()
	syncer := search.NewSyncer(&fakeSource{}, idx)
	if err := syncer.SyncOne(context.Background(), "ghost"); err != nil {
		t.Fatalf("missing item should not error: %v", err)
	}
}
