package repos

import (
	"github.com/jmoiron/sqlx"

	"shoplite/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// BoughtTogether ranks ACTIVE items that share an order with the given
// product, by co-occurrence count. Ties break on product id so the ranking
// is stable across runs.
func (r *OrderRepo) BoughtTogether(productID string, limit int) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := r.db.Select(&out, `
	  SELECT `+itemColumns+`
	  FROM order_items a
	  JOIN order_items b ON b.order_id = a.order_id AND b.product_id != a.product_id
	  JOIN products p ON p.id = b.product_id
	  JOIN shops s ON s.id = p.shop_id
	  WHERE a.product_id = ? AND p.status = ?
	  GROUP BY b.product_id
	  ORDER BY COUNT(*) DESC, b.product_id ASC
	  LIMIT ?`, productID, domain.StatusActive, limit)
	return out, err
}
