package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kontra/internal/domain"
	"kontra/internal/handler"
	"kontra/mocks"
)

func setupCacheRouter(intel *mocks.MockIntelService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewCacheHandler(intel)
	r := gin.New()
	r.GET("/api/v1/cache/stats", h.Stats)
	r.POST("/api/v1/cache/clear", h.Clear)
	r.POST("/api/v1/cache/sweep", h.Sweep)
	return r
}

func TestCacheStats(t *testing.T) {
	intel := new(mocks.MockIntelService)
	intel.On("CacheStats", mock.Anything).Return(&domain.CacheStats{
		Level1: domain.MemoryCacheStats{Size: 3, Hits: 6, Misses: 4, HitRate: 0.6},
		Level2: domain.TierStats{Count: 10},
		Level3: domain.TierStats{Count: 4, ExpiredCount: 1},
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	setupCacheRouter(intel).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestCacheClearTouchesOnlyMemory(t *testing.T) {
	intel := new(mocks.MockIntelService)
	intel.On("ClearMemoryCache").Return()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/clear", nil)
	setupCacheRouter(intel).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	intel.AssertNumberOfCalls(t, "ClearMemoryCache", 1)
	intel.AssertNumberOfCalls(t, "SweepExpired", 0)
}

func TestCacheSweep(t *testing.T) {
	intel := new(mocks.MockIntelService)
	intel.On("SweepExpired", mock.Anything).Return(&domain.SweepResult{
		Level2Removed: 2, Level3Removed: 1, Removed: 3,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/sweep", nil)
	setupCacheRouter(intel).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
