package main

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"videothingy/vault/config"
	_ "videothingy/vault/docs"
	"videothingy/vault/handlers"
	"videothingy/vault/middleware"
	"videothingy/vault/utils"
)

// newApp assembles the Fiber app. Handlers run with baseCtx as their user
// context, so cancelling it stops in-flight transcriptions.
func newApp(baseCtx context.Context, cfg *config.Config, h *handlers.ApplicationHandler, gatherer prometheus.Gatherer, logger logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "vault",
		BodyLimit: cfg.BodyLimit(),
		// Params and form values are stored past the handler's lifetime.
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.WithField("request_id", middleware.RequestID(c)).Errorf("Unhandled error: %v", err)
				return utils.RespondWithError(c, code, "Internal server error")
			}
			return utils.RespondWithError(c, code, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.FrontAPI,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(baseCtx)
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Vault API is healthy",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Get("/swagger/*", fiberSwagger.WrapHandler)
	app.Static("/uploads", cfg.Server.UploadsDir)

	h.RegisterRoutes(app.Group("/api"))
	return app
}
