package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shoplite/internal/domain"
	"shoplite/internal/services"
	"shoplite/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// List serves GET /api/v1/products. Filter parsing is forgiving: malformed
// numerics drop their filter instead of failing the request, so the listing
// stays available no matter what the query string carries.
func (h *SearchHandler) List(c *fiber.Ctx) error {
	q := domain.Query{
		Page:      validate.Page(c.Query("page")),
		Limit:     validate.Limit(c.Query("limit")),
		Search:    validate.Q(c.Query("search")),
		Tag:       validate.Q(c.Query("tag")),
		Sort:      validate.Sort(c.Query("sort")),
		MinPrice:  validate.Price(c.Query("min_price")),
		MaxPrice:  validate.Price(c.Query("max_price")),
		Rating:    validate.Rating(c.Query("rating")),
		Locations: validate.Locations(c.Query("locations")),
	}
	if id, ok := validate.ID(c.Query("category_id")); ok {
		q.CategoryID = id
	}
	if slug, ok := validate.ID(c.Query("category_slug")); ok {
		q.CategorySlug = slug
	}
	if id, ok := validate.ID(c.Query("brand_id")); ok {
		q.BrandID = id
	}

	page := h.Catalog.Search(c.Context(), q)
	return c.JSON(page)
}

func (h *SearchHandler) Suggest(c *fiber.Ctx) error {
	prefix := validate.Q(c.Query("q"))
	if prefix == "" {
		return c.JSON([]any{})
	}
	out, err := h.Catalog.Suggest(c.Context(), prefix, validate.Limit(c.Query("limit")))
	if err != nil {
		// suggestions are decoration; an index hiccup means an empty list
		return c.JSON([]any{})
	}
	if out == nil {
		return c.JSON([]any{})
	}
	return c.JSON(out)
}
