package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shoplite/internal/domain"
)

// Source is what the sync and fallback components need from the relational
// store. *repos.ProductRepo satisfies it.
type Source interface {
	ListForIndex() ([]domain.CatalogItem, error)
	GetFull(id string) (domain.CatalogItem, error)
	Filter(q domain.Query) (int64, []domain.CatalogItem, error)
}

// UnknownLocation is the sentinel for items whose shop has no usable city.
const UnknownLocation = "Unknown"

// Syncer keeps the index and suggestion dictionary in step with the source
// store. Entries are always fully recomputed, never merged, so concurrent
// syncs for different items are safe and last-writer-wins per key is fine.
type Syncer struct {
	src Source
	idx IndexStore
}

func NewSyncer(src Source, idx IndexStore) *Syncer {
	return &Syncer{src: src, idx: idx}
}

// FullSync bulk-loads every ACTIVE item into the index in one pipelined batch
// and rebuilds the suggestion dictionary from scratch, purging suggestions for
// items that are gone or no longer ACTIVE. Idempotent. Returns the count synced.
func (s *Syncer) FullSync(ctx context.Context) (int, error) {
	items, err := s.src.ListForIndex()
	if err != nil {
		return 0, err
	}

	docs := make([]Doc, 0, len(items))
	for i := range items {
		docs = append(docs, buildDoc(&items[i]))
	}
	if err := s.idx.PutDocs(ctx, docs); err != nil {
		return 0, err
	}

	if err := s.idx.ClearSuggestions(ctx, SuggestDict); err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.addSuggestion(ctx, &items[i]); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

// SyncOne re-fetches the full record so the entry is built from fresh state
// even if the caller acted on a partial view, then upserts the index entry and
// suggestion. A vanished or non-ACTIVE item has its entry and suggestion
// removed instead, so deactivation takes effect without waiting for a rebuild.
func (s *Syncer) SyncOne(ctx context.Context, id string) error {
	item, err := s.src.GetFull(id)
	if errors.Is(err, domain.ErrNotFound) {
		return s.idx.DeleteDoc(ctx, productKey(id))
	}
	if err != nil {
		return err
	}
	if item.Status != domain.StatusActive {
		if err := s.idx.DeleteDoc(ctx, productKey(id)); err != nil {
			return err
		}
		return s.idx.DeleteSuggestion(ctx, SuggestDict, item.Name)
	}
	if err := s.idx.PutDocs(ctx, []Doc{buildDoc(&item)}); err != nil {
		return err
	}
	return s.addSuggestion(ctx, &item)
}

func (s *Syncer) addSuggestion(ctx context.Context, item *domain.CatalogItem) error {
	score := float64(item.SalesCount)
	if score < 1 {
		score = 1 // keep zero-sales items discoverable
	}
	payload, _ := json.Marshal(sugPayload{
		ID:    item.ID,
		Slug:  item.Slug,
		Price: item.Price,
		Image: firstImage(item.ImagesJSON),
	})
	return s.idx.AddSuggestion(ctx, SuggestDict, item.Name, score, string(payload))
}

type sugPayload struct {
	ID    string  `json:"id"`
	Slug  string  `json:"slug"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

func buildDoc(item *domain.CatalogItem) Doc {
	loc := SanitizeTagKeyword(item.ShopCity)
	if loc == "" {
		loc = UnknownLocation
	}
	tags := CleanTags(item.RawTags)
	summary := Summarize(item, loc)
	payload, _ := json.Marshal(summary)

	return Doc{
		Key: productKey(item.ID),
		Fields: map[string]any{
			"name":       item.Name,
			"slug":       item.Slug,
			"price":      item.Price,
			"salesCount": item.SalesCount,
			"rating":     item.Rating,
			"location":   loc,
			"status":     item.Status,
			"systemTags": tags,
			"createdAt":  parseCreatedAt(item.CreatedAt),
			"payload":    string(payload),
		},
	}
}

// SummarizeAll maps source rows to the same summary shape the index payloads
// carry, so both planner paths return structurally identical results.
func SummarizeAll(rows []domain.CatalogItem) []domain.ItemSummary {
	out := make([]domain.ItemSummary, 0, len(rows))
	for i := range rows {
		loc := SanitizeTagKeyword(rows[i].ShopCity)
		if loc == "" {
			loc = UnknownLocation
		}
		out = append(out, Summarize(&rows[i], loc))
	}
	return out
}

// Summarize builds the JSON mirror payload for one item.
func Summarize(item *domain.CatalogItem, location string) domain.ItemSummary {
	return domain.ItemSummary{
		ID:            item.ID,
		Name:          item.Name,
		Slug:          item.Slug,
		Price:         item.Price,
		OriginalPrice: item.OriginalPrice,
		Stock:         item.Stock,
		SalesCount:    item.SalesCount,
		Rating:        item.Rating,
		Location:      location,
		Images:        decodeImages(item.ImagesJSON),
		CreatedAt:     item.CreatedAt,
	}
}

func decodeImages(imagesJSON string) []string {
	if imagesJSON == "" {
		return nil
	}
	var imgs []string
	if err := json.Unmarshal([]byte(imagesJSON), &imgs); err != nil {
		return nil
	}
	return imgs
}

func firstImage(imagesJSON string) string {
	if imgs := decodeImages(imagesJSON); len(imgs) > 0 {
		return imgs[0]
	}
	return ""
}

// created_at is stored as sqlite CURRENT_TIMESTAMP text; the index needs a
// numeric field for recency sorting.
func parseCreatedAt(s string) int64 {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return 0
}
