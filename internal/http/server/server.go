// Package server assembles the fiber app: error handling, middleware and
// routes.
package server

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"qlweb/internal/config"
	"qlweb/internal/http/handlers"
	"qlweb/internal/http/middleware"
	"qlweb/internal/infra/cache"
	"qlweb/internal/infra/fonts"
	"qlweb/internal/infra/logging"
	"qlweb/web"
)

// Deps are the collaborators of the app. Cache, Journal, Events and Store
// are optional; Open and Debug default to the real backend and log level.
type Deps struct {
	Config  config.Config
	Fonts   *fonts.Registry
	Cache   *cache.Preview
	Journal handlers.Journal
	Events  handlers.EventPublisher
	Open    handlers.OpenBackend
	Store   fiber.Storage
	Debug   func() bool
}

// New creates and configures a new Fiber app instance.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               d.Config.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	middleware.Register(app, readiness(d.Cache))
	RegisterRoutes(app, d)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func readiness(p *cache.Preview) func() bool {
	if p == nil {
		return nil
	}
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return p.Ping(ctx) == nil
	}
}

// RegisterRoutes mounts all route handlers to the app.
func RegisterRoutes(app *fiber.App, d Deps) {
	printer := handlers.NewPrintService(d.Config, d.Open, d.Journal, d.Events, d.Debug)
	h := handlers.New(d.Config, d.Fonts, d.Cache, printer, d.Journal)

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(static),
		MaxAge: 3600,
	}))

	app.Get("/", h.Index)
	app.Get("/labeldesigner", h.Designer)
	app.Get("/monitor", monitor.New(monitor.Config{Title: d.Config.Website.HTMLTitle + " Metrics"}))

	api := app.Group("/api")
	api.Get("/labels", h.Labels)
	if h.HasJournal() {
		api.Get("/prints", middleware.APIKey(d.Config.Auth.APITokens), h.Prints)
	}

	preview := api.Group("/preview")
	preview.Get("/text", h.PreviewText)
	preview.Post("/text", h.PreviewText)
	preview.Get("/grocy", h.PreviewGrocy)
	preview.Post("/grocy", h.PreviewGrocy)

	printing := api.Group("/print",
		middleware.APIKey(d.Config.Auth.APITokens),
		middleware.PrintLimiter(d.Config.RateLimit, d.Store),
	)
	printing.Get("/text", h.PrintText)
	printing.Post("/text", h.PrintText)
	printing.Get("/grocy", h.PrintGrocy)
	printing.Post("/grocy", h.PrintGrocy)
}
