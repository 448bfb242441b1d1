package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/moovie/internal/handler"
	"github.com/user/moovie/internal/middleware"
)

// Setup 创建带全局中间件的引擎并注册路由
func Setup(h *handler.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(h.Config.CORSOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	secret := h.Config.AppSecret
	requireAuth := middleware.RequireAuth(secret)
	optionalAuth := middleware.OptionalAuth(secret)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// ==================== 认证 ====================
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", requireAuth, h.Me)
	}

	// ==================== 电影库 ====================
	movies := api.Group("/movies")
	{
		movies.GET("", h.ListMovies)
		movies.GET("/:id", optionalAuth, h.GetMovie)
		movies.DELETE("/:id", requireAuth, middleware.RequireAdmin(), h.DeleteMovie)

		movies.PUT("/:id/rating", requireAuth, h.RateMovie)
		movies.DELETE("/:id/rating", requireAuth, h.DeleteRating)
		movies.PUT("/:id/status", requireAuth, h.SetWatchStatus)
		movies.DELETE("/:id/status", requireAuth, h.ClearWatchStatus)
	}
	api.GET("/genres", h.ListGenres)
	api.GET("/people/:id", h.GetPerson)

	// ==================== 个人数据 ====================
	me := api.Group("/me", requireAuth)
	{
		me.GET("/ratings", h.MyRatings)
		me.GET("/watchlist", h.Watchlist)
	}

	// ==================== 片单 ====================
	collections := api.Group("/collections")
	{
		collections.GET("", requireAuth, h.ListCollections)
		collections.POST("", requireAuth, h.CreateCollection)
		collections.GET("/:id", optionalAuth, h.GetCollection)
		collections.PUT("/:id", requireAuth, h.UpdateCollection)
		collections.DELETE("/:id", requireAuth, h.DeleteCollection)
		collections.POST("/:id/movies/:movieId", requireAuth, h.AddCollectionMovie)
		collections.DELETE("/:id/movies/:movieId", requireAuth, h.RemoveCollectionMovie)
	}

	// ==================== TMDB ====================
	tmdbGroup := api.Group("/tmdb", requireAuth)
	{
		tmdbGroup.GET("/search", h.SearchTMDB)
		tmdbGroup.POST("/import/bulk", middleware.RequireAdmin(), h.BulkImport)
		tmdbGroup.POST("/import/:tmdbId", h.ImportMovie)
	}

	// ==================== 推荐 ====================
	api.GET("/recommendations", requireAuth, h.Recommendations)

	// ==================== 管理后台 ====================
	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/users", h.AdminUsers)
		admin.PUT("/users/:id/role", h.AdminSetRole)
		admin.POST("/genres/sync", h.AdminSyncGenres)
	}
}
