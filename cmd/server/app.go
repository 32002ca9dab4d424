package main

import (
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/chapterviewer/internal/config"
	"github.com/localnerve/chapterviewer/internal/handlers"
	"github.com/localnerve/chapterviewer/internal/middleware"
	"github.com/localnerve/chapterviewer/internal/services"
	"github.com/localnerve/chapterviewer/internal/types"
	"gorm.io/gorm"
)

// appOptions carries the dependencies main wires into the app
type appOptions struct {
	Store   services.RecordStore
	DB      *gorm.DB
	Metrics bool
	Logging bool
	// Guard overrides the write guard, nil means AuthEditor(cfg)
	Guard fiber.Handler
}

// newApp builds the fiber app with every route registered
func newApp(cfg *config.Config, opts appOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		AppName:      "chapterviewer",
	})

	// Global middleware
	app.Use(recover.New())
	if opts.Logging {
		app.Use(logger.New())
	}
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,OPTIONS",
		AllowHeaders: "Content-Type,X-Api-Version,X-Request-ID",
	}))

	// Prometheus metrics
	if opts.Metrics {
		prometheus := fiberprometheus.New("chapterviewer")
		prometheus.RegisterAt(app, "/metrics")
		app.Use(prometheus.Middleware)
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	guard := opts.Guard
	if guard == nil {
		guard = middleware.AuthEditor(cfg)
	}

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	stateHandler := &handlers.StateHandler{Store: opts.Store}
	proxyHandler := &handlers.ProxyHandler{Store: opts.Store}
	deletionHandler := &handlers.DeletionHandler{DB: opts.DB, Store: opts.Store, BookID: cfg.BookID}
	bookHandler := &handlers.BookHandler{BookDir: cfg.BookDir}
	healthHandler := &handlers.HealthHandler{Cfg: cfg, Store: opts.Store}

	// Record routes (public GET, editor PUT/PATCH)
	api.Get("/state/:kind", stateHandler.GetState)
	api.Put("/state/:kind", guard, stateHandler.PutState)
	api.Patch("/state/:kind", guard, stateHandler.PatchState)

	// Compatibility routes used by browser clients
	api.Post("/github-proxy", guard, proxyHandler.Proxy)
	api.All("/github-proxy", proxyHandler.Proxy)
	api.Post("/log-deletion", guard, deletionHandler.LogDeletion)
	api.Get("/deleted-files", deletionHandler.DeletedFiles)
	api.Get("/deletions", deletionHandler.RecentDeletions)

	api.Get("/book-structure", bookHandler.GetBookStructure)
	api.Get("/health", healthHandler.Health)

	// Static viewer
	if cfg.SiteDir != "" {
		app.Static("/", cfg.SiteDir, fiber.Static{Compress: true})
	}

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	return app
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var customErr *types.CustomError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &customErr):
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || errors.Is(err, services.ErrVersion) {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
