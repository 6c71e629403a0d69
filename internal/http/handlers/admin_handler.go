package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shoplite/internal/log"
	"shoplite/internal/search"
	"shoplite/internal/validate"
)

// AdminHandler exposes the sync housekeeping endpoints. Auth in front of them
// is deployment wiring, not handled here.
type AdminHandler struct {
	Syncer *search.Syncer
}

func (h *AdminHandler) Reindex(c *fiber.Ctx) error {
	n, err := h.Syncer.FullSync(c.Context())
	if err != nil {
		log.Error(c, "sync.full.error", err, nil)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "index unavailable"})
	}
	log.Info(c, "sync.full", map[string]any{"synced": n})
	return c.JSON(fiber.Map{"synced": n})
}

func (h *AdminHandler) SyncOne(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	if err := h.Syncer.SyncOne(c.Context(), id); err != nil {
		log.Error(c, "sync.one.error", err, map[string]any{"id": id})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "index unavailable"})
	}
	return c.JSON(fiber.Map{"synced": id})
}
