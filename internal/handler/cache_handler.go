package handler

import (
	"github.com/gin-gonic/gin"

	"kontra/internal/service"
)

// CacheHandler handles cache inspection and maintenance endpoints.
type CacheHandler struct {
	intel service.IntelService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(intel service.IntelService) *CacheHandler {
	return &CacheHandler{intel: intel}
}

// Stats handles GET /api/v1/cache/stats
func (h *CacheHandler) Stats(c *gin.Context) {
	stats, err := h.intel.CacheStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}

// Clear handles POST /api/v1/cache/clear. Only the in-memory tier is
// dropped; persisted entries survive until they expire and are swept.
func (h *CacheHandler) Clear(c *gin.Context) {
	h.intel.ClearMemoryCache()
	RespondOK(c, gin.H{"cleared": "memory"})
}

// Sweep handles POST /api/v1/cache/sweep
func (h *CacheHandler) Sweep(c *gin.Context) {
	result, err := h.intel.SweepExpired(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}
