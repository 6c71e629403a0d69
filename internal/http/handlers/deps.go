package handlers

import (
	"github.com/jmoiron/sqlx"

	"shoplite/internal/repos"
	"shoplite/internal/search"
	"shoplite/internal/services"
)

type Deps struct {
	SearchHandler  *SearchHandler
	ProductHandler *ProductHandler
	AdminHandler   *AdminHandler

	Schema *search.SchemaManager
	Syncer *search.Syncer
}

func NewDeps(db *sqlx.DB, idx search.IndexStore) *Deps {
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	catRepo := repos.NewCategoryRepo(db)

	syncer := search.NewSyncer(prodRepo, idx)
	schema := search.NewSchemaManager(idx, syncer)
	cache := search.NewResultCache(idx)
	query := search.NewQueryService(schema, idx, prodRepo, cache)

	catalog := services.NewCatalogService(prodRepo, orderRepo, catRepo, query, idx)

	return &Deps{
		SearchHandler:  &SearchHandler{Catalog: catalog},
		ProductHandler: &ProductHandler{Catalog: catalog},
		AdminHandler:   &AdminHandler{Syncer: syncer},
		Schema:         schema,
		Syncer:         syncer,
	}
}
