package middleware

import (
	"ecocycle-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
	}

	middleware struct{}
)

func NewMiddleware() Middleware {
	return &middleware{}
}

// CORSMiddleware permits the configured frontend origins only. Defaults to
// the local Vite dev server when nothing is configured.
func (m *middleware) CORSMiddleware() fiber.Handler {
	origins := utils.GetConfig("ALLOWED_ORIGINS")
	if origins == "" {
		origins = "http://localhost,http://localhost:5173"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: true,
	})
}
