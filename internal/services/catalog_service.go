package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shoplite/internal/domain"
	applog "shoplite/internal/log"
	"shoplite/internal/repos"
	"shoplite/internal/search"
)

const (
	detailTTL   = 5 * time.Minute
	togetherTTL = 24 * time.Hour

	trendingFeedKey = "feed:trending"
)

// CatalogService is the read orchestration layer over the query planner, the
// source store and the index-backed caches.
type CatalogService struct {
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
	Cats     *repos.CategoryRepo
	Query    *search.QueryService
	Idx      search.IndexStore
}

func NewCatalogService(products *repos.ProductRepo, orders *repos.OrderRepo, cats *repos.CategoryRepo, query *search.QueryService, idx search.IndexStore) *CatalogService {
	return &CatalogService{Products: products, Orders: orders, Cats: cats, Query: query, Idx: idx}
}

func (s *CatalogService) Search(ctx context.Context, q domain.Query) domain.ProductPage {
	return s.Query.Search(ctx, q)
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

// GetProduct is a read-through detail lookup: cache, then source store with
// options joined, then cache populate. Not-found is the one error surfaced.
func (s *CatalogService) GetProduct(ctx context.Context, idOrSlug string) (domain.ProductDetail, error) {
	key := "cache:product:" + idOrSlug
	if raw, err := s.Idx.CacheGet(ctx, key); err == nil {
		var d domain.ProductDetail
		if json.Unmarshal([]byte(raw), &d) == nil {
			return d, nil
		}
	}

	item, opts, shopName, err := s.Products.FindDetailByIDOrSlug(idOrSlug)
	if err != nil {
		return domain.ProductDetail{}, err
	}
	desc, err := s.Products.Description(item.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.ProductDetail{}, err
	}

	detail := domain.ProductDetail{
		ItemSummary: search.SummarizeAll([]domain.CatalogItem{item})[0],
		Description: desc,
		ShopID:      item.ShopID,
		ShopName:    shopName,
		CategoryID:  item.CategoryID,
		Options:     opts,
	}
	if raw, err := json.Marshal(detail); err == nil {
		if err := s.Idx.CacheSet(ctx, key, string(raw), detailTTL); err != nil {
			applog.Error(nil, "cache.detail.set", err, nil)
		}
	}
	return detail, nil
}

func (s *CatalogService) Related(_ context.Context, productID string, limit int) ([]domain.ItemSummary, error) {
	rows, err := s.Products.RelatedByCategory(productID, limit)
	if err != nil {
		return nil, err
	}
	return search.SummarizeAll(rows), nil
}

func (s *CatalogService) MoreFromShop(_ context.Context, shopID string, page, limit int) ([]domain.ItemSummary, error) {
	if page < 1 {
		page = 1
	}
	rows, err := s.Products.ByShop(shopID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return search.SummarizeAll(rows), nil
}

// BoughtTogether serves the co-occurrence ranking with a long-lived cache;
// purchase patterns shift slowly, so a day of staleness is acceptable.
func (s *CatalogService) BoughtTogether(ctx context.Context, productID string, limit int) ([]domain.ItemSummary, error) {
	key := "cache:together:" + productID
	if raw, err := s.Idx.CacheGet(ctx, key); err == nil {
		var out []domain.ItemSummary
		if json.Unmarshal([]byte(raw), &out) == nil {
			return out, nil
		}
	}

	rows, err := s.Orders.BoughtTogether(productID, limit)
	if err != nil {
		return nil, err
	}
	out := search.SummarizeAll(rows)
	if len(out) > 0 {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.Idx.CacheSet(ctx, key, string(raw), togetherTTL); err != nil {
				applog.Error(nil, "cache.together.set", err, nil)
			}
		}
	}
	return out, nil
}

func (s *CatalogService) Suggest(ctx context.Context, prefix string, max int) ([]search.Suggestion, error) {
	if max < 1 || max > 10 {
		max = 5
	}
	return s.Idx.Suggest(ctx, search.SuggestDict, prefix, max)
}

// Feed serves the user's affinity ranking, falling back to global trending
// when the user has no personal signal yet.
func (s *CatalogService) Feed(ctx context.Context, userID string, limit int) ([]domain.ItemSummary, error) {
	var ids []string
	var err error
	if userID != "" {
		ids, err = s.Idx.TopScores(ctx, userFeedKey(userID), limit)
		if err != nil {
			return nil, err
		}
	}
	if len(ids) == 0 {
		ids, err = s.Idx.TopScores(ctx, trendingFeedKey, limit)
		if err != nil {
			return nil, err
		}
	}
	rows, err := s.Products.ByIDs(ids)
	if err != nil {
		return nil, err
	}
	return search.SummarizeAll(rows), nil
}

// RecordView feeds the affinity sets the feed reads from.
func (s *CatalogService) RecordView(ctx context.Context, userID, productID string) error {
	if err := s.Idx.BumpScore(ctx, trendingFeedKey, productID, 1); err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	return s.Idx.BumpScore(ctx, userFeedKey(userID), productID, 1)
}

func userFeedKey(userID string) string { return "feed:user:" + userID }
