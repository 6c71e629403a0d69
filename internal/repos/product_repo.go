package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"shoplite/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// itemColumns selects every field a CatalogItem carries, shop city joined in.
const itemColumns = `
  p.id, p.name, p.slug, p.price, p.original_price, p.stock, p.sales_count,
  p.rating, p.status,
  COALESCE(p.raw_tags,'')    AS raw_tags,
  COALESCE(p.images_json,'') AS images_json,
  COALESCE(p.category_id,'') AS category_id,
  COALESCE(p.brand_id,'')    AS brand_id,
  p.shop_id,
  COALESCE(s.city,'')        AS shop_city,
  COALESCE(p.created_at,'')  AS created_at`

// ListForIndex feeds Full Sync: every ACTIVE item with its shop location.
func (r *ProductRepo) ListForIndex() ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := r.db.Select(&out, `
	  SELECT `+itemColumns+`
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE p.status = ?
	  ORDER BY p.id`, domain.StatusActive)
	return out, err
}

// GetFull re-fetches one record regardless of status, for Incremental Sync.
func (r *ProductRepo) GetFull(id string) (domain.CatalogItem, error) {
	var p domain.CatalogItem
	err := r.db.Get(&p, `
	  SELECT `+itemColumns+`
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	return p, err
}

// Filter is the fallback predicate translation of the index query: substring
// matching instead of token search, exact range filters otherwise. The count
// runs concurrently with the page fetch since neither depends on the other.
func (r *ProductRepo) Filter(q domain.Query) (int64, []domain.CatalogItem, error) {
	where, args := buildFilter(q)

	countSQL := `SELECT COUNT(*) FROM products p JOIN shops s ON s.id = p.shop_id WHERE ` + where

	totalCh := make(chan int64, 1)
	errCh := make(chan error, 1)
	go func() {
		var total int64
		if err := r.db.Get(&total, countSQL, args...); err != nil {
			errCh <- err
			return
		}
		totalCh <- total
	}()

	pageSQL := `
	  SELECT ` + itemColumns + `
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE ` + where + `
	  ORDER BY ` + orderClause(q.Sort) + `
	  LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)

	var rows []domain.CatalogItem
	if err := r.db.Select(&rows, pageSQL, pageArgs...); err != nil {
		return 0, nil, err
	}

	select {
	case err := <-errCh:
		return 0, nil, err
	case total := <-totalCh:
		return total, rows, nil
	}
}

func buildFilter(q domain.Query) (string, []any) {
	where := []string{`p.status = ?`}
	args := []any{domain.StatusActive}

	if q.Search != "" {
		needle := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, `(LOWER(p.name) LIKE ? OR LOWER(COALESCE(p.raw_tags,'')) LIKE ?)`)
		args = append(args, needle, needle)
	}
	if q.Tag != "" {
		where = append(where, `LOWER(COALESCE(p.raw_tags,'')) LIKE ?`)
		args = append(args, "%"+strings.ToLower(q.Tag)+"%")
	}
	if q.CategoryID != "" {
		where = append(where, `p.category_id = ?`)
		args = append(args, q.CategoryID)
	}
	if q.CategorySlug != "" {
		where = append(where, `p.category_id IN (SELECT id FROM categories WHERE slug = ?)`)
		args = append(args, q.CategorySlug)
	}
	if q.BrandID != "" {
		where = append(where, `p.brand_id = ?`)
		args = append(args, q.BrandID)
	}
	if q.MinPrice != nil {
		where = append(where, `p.price >= ?`)
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, `p.price <= ?`)
		args = append(args, *q.MaxPrice)
	}
	if q.Rating != nil {
		where = append(where, `p.rating >= ?`)
		args = append(args, *q.Rating)
	}
	if len(q.Locations) > 0 {
		ph := make([]string, len(q.Locations))
		for i, l := range q.Locations {
			ph[i] = "?"
			args = append(args, strings.ToLower(l))
		}
		where = append(where, `LOWER(COALESCE(s.city,'')) IN (`+strings.Join(ph, ",")+`)`)
	}

	return strings.Join(where, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case domain.SortPriceAsc:
		return "p.price ASC"
	case domain.SortPriceDesc:
		return "p.price DESC"
	case domain.SortNewest:
		return "p.created_at DESC"
	default:
		return "p.sales_count DESC"
	}
}

// FindDetailByIDOrSlug loads a product with its options for the detail page.
func (r *ProductRepo) FindDetailByIDOrSlug(idOrSlug string) (domain.CatalogItem, []domain.ProductOption, string, error) {
	var p struct {
		domain.CatalogItem
		ShopName string `db:"shop_name"`
	}
	err := r.db.Get(&p, `
	  SELECT `+itemColumns+`, s.name AS shop_name
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE p.id = ? OR p.slug = ?`, idOrSlug, idOrSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return p.CatalogItem, nil, "", domain.ErrNotFound
	}
	if err != nil {
		return p.CatalogItem, nil, "", err
	}

	var opts []domain.ProductOption
	err = r.db.Select(&opts, `
	  SELECT id, name, value, price, stock
	  FROM product_options WHERE product_id = ? ORDER BY id`, p.ID)
	return p.CatalogItem, opts, p.ShopName, err
}

// Description is not part of CatalogItem; the detail read fetches it apart.
func (r *ProductRepo) Description(id string) (string, error) {
	var desc string
	err := r.db.Get(&desc, `SELECT COALESCE(description,'') FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return desc, err
}

// RelatedByCategory lists other ACTIVE items in the same category.
func (r *ProductRepo) RelatedByCategory(productID string, limit int) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := r.db.Select(&out, `
	  SELECT `+itemColumns+`
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE p.status = ? AND p.id != ?
	    AND p.category_id = (SELECT category_id FROM products WHERE id = ?)
	  ORDER BY p.sales_count DESC
	  LIMIT ?`, domain.StatusActive, productID, productID, limit)
	return out, err
}

// ByShop lists a shop's ACTIVE items, best sellers first.
func (r *ProductRepo) ByShop(shopID string, limit, offset int) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := r.db.Select(&out, `
	  SELECT `+itemColumns+`
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE p.status = ? AND p.shop_id = ?
	  ORDER BY p.sales_count DESC
	  LIMIT ? OFFSET ?`, domain.StatusActive, shopID, limit, offset)
	return out, err
}

// ByIDs loads ACTIVE items for a ranked id list, preserving the input order.
func (r *ProductRepo) ByIDs(ids []string) ([]domain.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
	  SELECT `+itemColumns+`
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  WHERE p.status = ? AND p.id IN (?)`, domain.StatusActive, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.CatalogItem
	if err := r.db.Select(&rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	byID := make(map[string]domain.CatalogItem, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]domain.CatalogItem, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}
