package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shoplite/internal/domain"
	"shoplite/internal/log"
	"shoplite/internal/services"
	"shoplite/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	idOrSlug, ok := validate.ID(c.Params("idOrSlug"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "idOrSlug"})
		return notFound(c)
	}
	d, err := h.Catalog.GetProduct(c.Context(), idOrSlug)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		log.Error(c, "product.detail.error", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(d)
}

func (h *ProductHandler) Related(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	out, err := h.Catalog.Related(c.Context(), id, validate.Limit(c.Query("limit")))
	if err != nil {
		log.Error(c, "product.related.error", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"data": emptyIfNil(out)})
}

func (h *ProductHandler) AlsoBought(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	out, err := h.Catalog.BoughtTogether(c.Context(), id, validate.Limit(c.Query("limit")))
	if err != nil {
		log.Error(c, "product.together.error", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"data": emptyIfNil(out)})
}

func (h *ProductHandler) ShopProducts(c *fiber.Ctx) error {
	shopID, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	out, err := h.Catalog.MoreFromShop(c.Context(), shopID, validate.Page(c.Query("page")), validate.Limit(c.Query("limit")))
	if err != nil {
		log.Error(c, "shop.products.error", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"data": emptyIfNil(out)})
}

func (h *ProductHandler) Feed(c *fiber.Ctx) error {
	userID := c.Query("user_id") // anonymous users get the trending feed
	out, err := h.Catalog.Feed(c.Context(), userID, validate.Limit(c.Query("limit")))
	if err != nil {
		log.Error(c, "feed.error", err, nil)
		return c.JSON(fiber.Map{"data": []any{}})
	}
	return c.JSON(fiber.Map{"data": emptyIfNil(out)})
}

func (h *ProductHandler) RecordView(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	if err := h.Catalog.RecordView(c.Context(), c.Query("user_id"), id); err != nil {
		log.Error(c, "feed.record.error", err, nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	out, err := h.Catalog.ListCategories()
	if err != nil {
		log.Error(c, "categories.error", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"data": out})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
}

func emptyIfNil(items []domain.ItemSummary) []domain.ItemSummary {
	if items == nil {
		return []domain.ItemSummary{}
	}
	return items
}
