package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"shoplite/internal/config"
	"shoplite/internal/http/handlers"
	applog "shoplite/internal/log"
	"shoplite/internal/repos"
	"shoplite/internal/search"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	idx := search.NewRedisStore(cfg.RedisAddr)
	if err := idx.Ping(context.Background()); err != nil {
		// not fatal: reads run degraded against the source store
		applog.Error(nil, "redis.unreachable", err, nil)
	}
	deps := handlers.NewDeps(db, idx)

	// Index bootstrap runs in the background: reads never wait on it, and a
	// failure just leaves the planner on the source-store path.
	go deps.Schema.Ensure(context.Background())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": "something went wrong, please retry"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())

	api := app.Group("/api/v1")
	api.Get("/products", limiter.New(limiter.Config{Max: 60, Expiration: time.Minute}), deps.SearchHandler.List)
	api.Get("/products/:idOrSlug", deps.ProductHandler.Detail)
	api.Get("/products/:id/related", deps.ProductHandler.Related)
	api.Get("/products/:id/also-bought", deps.ProductHandler.AlsoBought)
	api.Post("/products/:id/view", deps.ProductHandler.RecordView)
	api.Get("/shops/:id/products", deps.ProductHandler.ShopProducts)
	api.Get("/categories", deps.ProductHandler.Categories)
	api.Get("/suggest", deps.SearchHandler.Suggest)
	api.Get("/feed", deps.ProductHandler.Feed)

	admin := api.Group("/admin")
	admin.Post("/reindex", deps.AdminHandler.Reindex)
	admin.Post("/sync/:id", deps.AdminHandler.SyncOne)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "index": deps.Schema.State().String()})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
