package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
)

// Extract returns a handler for POST /api/v1/extract.
//
// It runs the field extractor and signal inference against a saved product
// page, with no browser involved.
func Extract(f Finder) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err.Error())
			return
		}

		doc, err := dom.NewReplay(req.HTML)
		if err != nil {
			invalidInput(c, err.Error())
			return
		}
		if req.URL != "" {
			doc.SetURL(0, req.URL)
		}

		rec := f.ExtractDocument(c.Request.Context(), doc, req.Query)
		if req.URL == "" {
			rec.SourceURL = models.NA
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Success: true,
			Record:  rec,
			Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		})
	}
}
