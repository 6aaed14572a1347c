package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/debsscc/Game-Data-Automation/cache"
	"github.com/debsscc/Game-Data-Automation/models"
)

// Search returns a handler for POST /api/v1/search.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when max_age > 0.
//  3. Finder.AttemptExtraction → record or coded error.
//  4. Cache store, fill Timing, return 200.
func Search(f Finder, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err.Error())
			return
		}
		req.Defaults()
		if req.Query == "" {
			invalidInput(c, "query must not be blank")
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.Query)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				c.JSON(http.StatusOK, models.SearchResponse{
					Success:     true,
					Record:      cached,
					CacheStatus: "hit",
					Timing:      models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
				})
				return
			}
		}

		// ── 3. Extract ──────────────────────────────────────────────
		rec, err := f.AttemptExtraction(c.Request.Context(), req.Query)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()})
			return
		}

		// ── 4. Cache store and respond ──────────────────────────────
		resp := models.SearchResponse{Success: true, Record: rec}
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, rec)
			resp.CacheStatus = "miss"
		}
		resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}

		c.JSON(http.StatusOK, resp)
	}
}
