package api

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")

	ocr := v1.Group("/ocr")
	ocr.Post("/", h.StartOCR)
	ocr.Get("/:id", h.GetOCRResult)

	v1.Get("/stats", h.GetStats)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "pdfocr",
			"docs":    "https://github.com/Caia-Tech/pdfocr",
		})
	})
}
