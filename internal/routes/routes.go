package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/veridianlabs/sessiond/internal/handlers"
)

func Setup(
	app *fiber.App,
	authHandler *handlers.AuthHandler,
	noteHandler *handlers.NoteHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Health (no rate limit)
	app.Get("/status", healthHandler.Check)

	// Credential-bearing endpoints get a stricter limit: 10 req/min per IP
	authLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	app.Post("/auth", authLimiter, authHandler.Login)
	app.Get("/auth", authHandler.Check)
	app.Post("/user", authLimiter, authHandler.Register)
	app.Post("/db", noteHandler.Save)
}
