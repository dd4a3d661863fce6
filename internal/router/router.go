// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/online-movie-store/internal/config"
	"github.com/iliyamo/online-movie-store/internal/handler"
	"github.com/iliyamo/online-movie-store/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes. Unauthenticated
// operations live under /v1/auth and are rate limited per client;
// /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/register", a.Register)
	g.POST("/activate", a.Activate)
	g.GET("/activate", a.Activate) // mailed link lands here
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/logout-all", a.LogoutAll, middleware.JWTAuth(jwtSecret))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the unauthenticated catalog browse
// endpoints. Responses are cached in Redis when caching is enabled.
func RegisterPublic(e *echo.Echo, m *handler.MovieHandler, eng *handler.EngagementHandler, rdb *redis.Client) {
	g := e.Group("/v1/movies")
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	g.GET("", m.List)
	g.GET("/:id", m.Get)
	g.GET("/:id/engagement", eng.Summary)
	g.GET("/:id/comments", eng.ListComments)

	gg := e.Group("/v1/genres")
	gg.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	gg.GET("", m.Genres)
	gg.GET("/:name", m.ByGenre)
}

// RegisterStore registers the authenticated customer endpoints: cart,
// checkout, order history and payments.
func RegisterStore(e *echo.Echo, cart *handler.CartHandler, order *handler.OrderHandler, pay *handler.PaymentHandler, eng *handler.EngagementHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))

	g.GET("/cart", cart.Get)
	g.POST("/cart/items", cart.AddItem)
	g.PATCH("/cart/items/:id", cart.UpdateItem)
	g.DELETE("/cart/items/:id", cart.RemoveItem)
	g.DELETE("/cart", cart.Clear)

	g.POST("/orders", order.Place)
	g.GET("/orders", order.ListMine)
	g.GET("/orders/:id", order.Get)
	g.POST("/orders/:id/cancel", order.Cancel)

	g.POST("/orders/:id/payments", pay.Initiate)
	g.GET("/payments", pay.ListMine)

	g.GET("/favorites", eng.ListFavorites)
	g.POST("/movies/:id/favorite", eng.AddFavorite)
	g.DELETE("/movies/:id/favorite", eng.RemoveFavorite)
	g.POST("/movies/:id/reaction", eng.React)
	g.DELETE("/movies/:id/reaction", eng.RemoveReaction)
	g.POST("/movies/:id/rating", eng.Rate)
	g.POST("/movies/:id/comments", eng.AddComment)
	g.DELETE("/comments/:id", eng.DeleteComment)
}

// RegisterWebhook registers the payment provider callback. The route
// is unauthenticated; the HMAC signature over the raw body is the
// authentication.
func RegisterWebhook(e *echo.Echo, pay *handler.PaymentHandler) {
	e.POST("/v1/payments/webhook", pay.Webhook)
}

// RegisterAdmin registers catalog management and cross-user listings
// for the ADMIN role. Catalog writes share the /v1/movies prefix with
// the public reads; only the write methods carry the admin guard.
func RegisterAdmin(e *echo.Echo, m *handler.MovieHandler, order *handler.OrderHandler, pay *handler.PaymentHandler, user *handler.UserHandler, jwtSecret string) {
	adminOnly := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	}

	e.POST("/v1/movies", m.Create, adminOnly...)
	e.PUT("/v1/movies/:id", m.Update, adminOnly...)
	e.PATCH("/v1/movies/:id/price", m.UpdatePrice, adminOnly...)
	e.DELETE("/v1/movies/:id", m.Delete, adminOnly...)

	g := e.Group("/v1/admin", adminOnly...)
	g.GET("/orders", order.ListAll)
	g.GET("/payments", pay.ListAll)
	g.GET("/payments/events", pay.ListEvents)
	g.POST("/payments/:id/refund", pay.Refund)
	g.PATCH("/users/:id/active", user.SetActive)
}
