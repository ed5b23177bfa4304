package routes

import (
	"ecocycle-backend/internal/api/handlers"
	"ecocycle-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App          *fiber.App
	WasteHandler handlers.WasteHandler
	Middleware   middleware.Middleware
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.LegacyWastePosts()
	c.WastePosts()
	c.GuestRoute()
}

// LegacyWastePosts keeps the paths the map frontend already calls.
func (c *Config) LegacyWastePosts() {
	c.App.Get("/waste_posts", c.WasteHandler.GetWastePosts)
	c.App.Get("/waste_posts/filtered", c.WasteHandler.GetFilteredWastePosts)
}

func (c *Config) WastePosts() {
	wastePosts := c.App.Group("/api/v1/waste-posts")

	wastePosts.Post("", c.WasteHandler.SubmitWastePost)
	wastePosts.Post("/analyze", c.WasteHandler.AnalyzeWasteImage)
	wastePosts.Get("", c.WasteHandler.GetWastePosts)
	wastePosts.Get("/filtered", c.WasteHandler.GetFilteredWastePosts)
	wastePosts.Get("/:id/image", c.WasteHandler.GetWastePostImage)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong, its works. test"})
	})
}
