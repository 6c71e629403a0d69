package repos

import (
	"github.com/jmoiron/sqlx"

	"shoplite/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `SELECT id, name, slug FROM categories ORDER BY name`)
	return out, err
}
