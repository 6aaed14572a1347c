// Package handler holds the gin handlers of the HTTP API and the search form.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
)

// Finder runs searches and offline extractions.
type Finder interface {
	AttemptExtraction(ctx context.Context, query string) (*models.ProductRecord, error)
	ExtractDocument(ctx context.Context, doc dom.Document, query string) *models.ProductRecord
}

// StatsProvider reports the session manager's state.
type StatsProvider interface {
	Stats() models.SessionStats
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr := models.AsScrapeError(err)

	c.JSON(mapErrorToStatus(scrapeErr), models.SearchResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeNoSearchBox, models.ErrCodeNoResults:
		return http.StatusNotFound // 404
	case models.ErrCodeSessionUnavailable:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}

func invalidInput(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.SearchResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: msg,
		},
	})
}
