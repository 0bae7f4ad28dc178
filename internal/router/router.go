package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/peer-rental/internal/handler"
	"github.com/iliyamo/peer-rental/internal/middleware"
	"github.com/iliyamo/peer-rental/internal/model"
)

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Items   *handler.ItemHandler
	Chats   *handler.ChatHandler
	Rentals *handler.RentalHandler
	Reviews *handler.ReviewHandler
}

// Options carries the middleware shared by several route groups.
type Options struct {
	JWTSecret string
	// Cache wraps the cacheable public reads; nil disables caching.
	Cache echo.MiddlewareFunc
}

// Register mounts the whole API on e.
func Register(e *echo.Echo, h Handlers, opts Options) {
	cache := opts.Cache
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/healthz", h.Health.Health)

	registerAuth(e, h.Auth, opts.JWTSecret)

	// Public catalog reads.
	pub := e.Group("/v1")
	pub.GET("/items/search", h.Items.Search, cache)
	pub.GET("/items/:id", h.Items.Get, cache)
	pub.GET("/categories", h.Items.ListCategories, cache)
	pub.GET("/users/:id", h.Auth.Profile)
	pub.GET("/users/:id/items", h.Items.ListByOwner)
	pub.GET("/users/:id/reviews", h.Reviews.ListForUser)
	pub.GET("/users/:id/rating", h.Reviews.Rating)

	registerMarketplace(e.Group("/v1", middleware.JWTAuth(opts.JWTSecret)), h)
}

// registerAuth mounts /v1/auth and /v1/me.  Logout accepts an optional
// access token: with a refresh_token in the body only that session ends,
// otherwise all sessions of the token's user are revoked.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// registerMarketplace mounts the authenticated marketplace routes on g.
func registerMarketplace(g *echo.Group, h Handlers) {
	g.POST("/items", h.Items.Create)
	g.PATCH("/items/:id/availability", h.Items.SetAvailability)
	g.POST("/categories", h.Items.CreateCategory, middleware.RequireRole(model.RoleAdmin))

	g.POST("/chats/start", h.Chats.Start)
	g.GET("/chats", h.Chats.List)
	g.GET("/chats/:id/messages", h.Chats.ListMessages)
	g.POST("/chats/:id/messages", h.Chats.Send)
	g.POST("/chats/:id/read", h.Chats.MarkRead)
	g.DELETE("/chats/:id/participation", h.Chats.Leave)

	g.POST("/rentals", h.Rentals.Create)
	g.GET("/rentals/:id", h.Rentals.Get)
	g.POST("/rentals/:id/confirm", h.Rentals.Confirm)
	g.POST("/rentals/:id/cancel", h.Rentals.Cancel)
	g.GET("/my-rentals", h.Rentals.Mine)

	g.POST("/reviews", h.Reviews.Create)
}
