package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"shoplite/internal/domain"
	applog "shoplite/internal/log"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Planner answers a filter/sort request with one page of results. Two
// backends implement it: the index path and the relational fallback. The
// fallback is an interface swap, not a second branch of query logic.
type Planner interface {
	Query(ctx context.Context, q domain.Query) (domain.ProductPage, error)
}

// QueryService is the read entry point: it picks a backend, recovers from
// index failures, and maintains the short-lived result cache. Its Search
// never returns an error; the worst case is an empty page.
type QueryService struct {
	readiness *SchemaManager
	index     Planner
	db        Planner
	cache     *ResultCache
}

func NewQueryService(m *SchemaManager, idx IndexStore, src Source, cache *ResultCache) *QueryService {
	return &QueryService{
		readiness: m,
		index:     &indexPlanner{idx: idx},
		db:        &dbPlanner{src: src},
		cache:     cache,
	}
}

// needsIndex keeps trivial browse-all listings off the index path.
func needsIndex(q domain.Query) bool {
	return q.Search != "" || q.Tag != "" || q.MinPrice != nil || q.MaxPrice != nil ||
		q.Rating != nil || len(q.Locations) > 0
}

func normalize(q domain.Query) domain.Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (s *QueryService) Search(ctx context.Context, q domain.Query) domain.ProductPage {
	q = normalize(q)

	if needsIndex(q) && s.readiness.Ready() {
		page, err := s.index.Query(ctx, q)
		if err == nil {
			return page
		}
		applog.Error(nil, "search.index.fallback", err, map[string]any{"search": q.Search})
	}

	// Free-text queries make high-entropy, low-reuse keys; never cache them.
	var key string
	if q.Search == "" {
		key = s.cache.Key(q)
		if page, ok := s.cache.Get(ctx, key); ok {
			return page
		}
	}

	page, err := s.db.Query(ctx, q)
	if err != nil {
		applog.Error(nil, "search.db.error", err, nil)
		return domain.ProductPage{Data: []domain.ItemSummary{}, Meta: domain.PageMeta(0, q.Page, q.Limit)}
	}
	if key != "" && len(page.Data) > 0 {
		s.cache.Set(ctx, key, page)
	}
	return page
}

type indexPlanner struct {
	idx IndexStore
}

func (p *indexPlanner) Query(ctx context.Context, q domain.Query) (domain.ProductPage, error) {
	query := buildIndexQuery(q)
	sortBy, desc := resolveSort(q.Sort)

	total, payloads, err := p.idx.Search(ctx, IndexName, query, SearchOptions{
		Offset:   (q.Page - 1) * q.Limit,
		Limit:    q.Limit,
		SortBy:   sortBy,
		SortDesc: desc,
		Return:   "payload",
	})
	if err != nil {
		return domain.ProductPage{}, err
	}

	items := make([]domain.ItemSummary, 0, len(payloads))
	for _, raw := range payloads {
		var it domain.ItemSummary
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return domain.ProductPage{}, fmt.Errorf("%w: payload: %v", ErrBadReply, err)
		}
		items = append(items, it)
	}
	return domain.ProductPage{Data: items, Meta: domain.PageMeta(total, q.Page, q.Limit)}, nil
}

// buildIndexQuery assembles the conjunction of clauses. Every request-supplied
// value goes through EscapeFreeText or SanitizeTagKeyword first; that is the
// whole injection defense.
func buildIndexQuery(q domain.Query) string {
	clauses := []string{"@status:{" + domain.StatusActive + "}"}

	if q.Search != "" {
		if c := textClause(q.Search); c != "" {
			clauses = append(clauses, c)
		}
	}
	if q.Tag != "" {
		if kw := SanitizeTagKeyword(q.Tag); kw != "" {
			clauses = append(clauses, "@systemTags:{"+kw+"}")
		}
	}
	if len(q.Locations) > 0 {
		var locs []string
		for _, l := range q.Locations {
			if v := SanitizeTagKeyword(l); v != "" {
				locs = append(locs, v)
			}
		}
		if len(locs) > 0 {
			clauses = append(clauses, "@location:{"+strings.Join(locs, "|")+"}")
		}
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		clauses = append(clauses, "@price:["+numOr(q.MinPrice, "-inf")+" "+numOr(q.MaxPrice, "+inf")+"]")
	}
	if q.Rating != nil {
		clauses = append(clauses, "@rating:["+formatNum(*q.Rating)+" +inf]")
	}

	return strings.Join(clauses, " ")
}

// textClause matches name tokens by prefix, or the whole term as a tag.
func textClause(search string) string {
	escaped := EscapeFreeText(search)
	toks := strings.Fields(escaped)
	if len(toks) == 0 {
		return ""
	}
	for i, t := range toks {
		toks[i] = t + "*"
	}
	nameClause := "@name:(" + strings.Join(toks, " ") + ")"
	if kw := SanitizeTagKeyword(search); kw != "" {
		return "((" + nameClause + ") | (@systemTags:{" + kw + "}))"
	}
	return "(" + nameClause + ")"
}

func numOr(v *float64, def string) string {
	if v == nil {
		return def
	}
	return formatNum(*v)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func resolveSort(sort string) (field string, desc bool) {
	switch sort {
	case domain.SortPriceAsc:
		return "price", false
	case domain.SortPriceDesc:
		return "price", true
	case domain.SortNewest:
		return "createdAt", true
	default:
		return "salesCount", true
	}
}

type dbPlanner struct {
	src Source
}

func (p *dbPlanner) Query(ctx context.Context, q domain.Query) (domain.ProductPage, error) {
	total, rows, err := p.src.Filter(q)
	if err != nil {
		return domain.ProductPage{}, err
	}
	items := SummarizeAll(rows)
	return domain.ProductPage{Data: items, Meta: domain.PageMeta(total, q.Page, q.Limit)}, nil
}
