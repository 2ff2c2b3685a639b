package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/inkweave/inkweave-backend/internal/config"
	"github.com/inkweave/inkweave-backend/internal/handlers"
	"github.com/inkweave/inkweave-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	boardHandler *handlers.BoardHandler,
	threadHandler *handlers.ThreadHandler,
	feedHandler *handlers.FeedHandler,
	blockHandler *handlers.BlockHandler,
	circleHandler *handlers.CircleHandler,
	favoriteHandler *handlers.FavoriteHandler,
	tagHandler *handlers.TagHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Public reads resolve the viewer when a token is present but serve
	// anonymous requests too; visibility filtering happens in the services.
	optional := middleware.OptionalJWT(cfg)
	api.Get("/boards", optional, boardHandler.List)
	api.Get("/boards/:id", optional, boardHandler.Get)
	api.Get("/threads/:id", optional, threadHandler.Get)
	api.Get("/threads/:id/replies", optional, threadHandler.ListReplies)
	api.Get("/threads/:id/tags", optional, tagHandler.ThreadTags)
	api.Get("/tags", tagHandler.List)

	// Everything below requires a signed-in viewer.
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Post("/boards", boardHandler.Create)
	protected.Put("/boards/:id", boardHandler.Update)
	protected.Post("/boards/:id/sections", boardHandler.CreateSection)
	protected.Delete("/boards/:id/sections/:section_id", boardHandler.DeleteSection)
	protected.Post("/boards/:id/read", boardHandler.MarkRead)
	protected.Post("/boards/:id/unread", boardHandler.MarkUnread)
	protected.Post("/boards/:id/ignore", boardHandler.Ignore)
	protected.Delete("/boards/:id/ignore", boardHandler.Unignore)

	protected.Post("/threads", threadHandler.Create)
	protected.Put("/threads/:id", threadHandler.Update)
	protected.Delete("/threads/:id", threadHandler.Delete)
	protected.Post("/threads/:id/replies", threadHandler.PostReply)
	protected.Delete("/threads/:id/replies/:reply_id", threadHandler.DeleteReply)
	protected.Post("/threads/:id/read", threadHandler.MarkRead)
	protected.Post("/threads/:id/unread", threadHandler.MarkUnread)
	protected.Post("/threads/:id/ignore", threadHandler.Ignore)
	protected.Delete("/threads/:id/ignore", threadHandler.Unignore)
	protected.Get("/threads/:id/first-unread", threadHandler.FirstUnread)
	protected.Post("/threads/:id/opt-out", threadHandler.OptOut)
	protected.Post("/threads/:id/opt-in", threadHandler.OptIn)
	protected.Get("/threads/:id/owed", threadHandler.Owes)
	protected.Put("/threads/:id/tags", tagHandler.SetThreadTags)

	protected.Post("/tags", tagHandler.Create)

	protected.Get("/feeds/:kind", feedHandler.Get)

	protected.Post("/blocks", blockHandler.Create)
	protected.Put("/blocks/:id", blockHandler.Update)
	protected.Delete("/blocks/:id", blockHandler.Delete)
	protected.Get("/blocks", blockHandler.List)

	protected.Post("/circles", circleHandler.Create)
	protected.Put("/circles/:id/members", circleHandler.UpdateMembers)
	protected.Delete("/circles/:id", circleHandler.Delete)
	protected.Get("/circles", circleHandler.List)
	protected.Get("/circles/:id/members", circleHandler.ListMembers)

	protected.Post("/favorites", favoriteHandler.Create)
	protected.Delete("/favorites/:id", favoriteHandler.Delete)
	protected.Get("/favorites", favoriteHandler.List)
}
