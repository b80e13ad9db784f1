package router

import (
	"github.com/gin-gonic/gin"

	"kontra/internal/handler"
	"kontra/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	intelH *handler.IntelHandler,
	cacheH *handler.CacheHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Extraction
	v1.POST("/documents/:id/extract", intelH.Extract)

	// Retrieval
	v1.POST("/questions", intelH.Question)
	v1.POST("/questions/corrections", intelH.Correction)

	// Cache operations
	cache := v1.Group("/cache")
	cache.GET("/stats", cacheH.Stats)
	cache.POST("/clear", cacheH.Clear)
	cache.POST("/sweep", cacheH.Sweep)

	return r
}
