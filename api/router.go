package api

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/debsscc/Game-Data-Automation/api/handler"
	"github.com/debsscc/Game-Data-Automation/cache"
	"github.com/debsscc/Game-Data-Automation/config"
	"github.com/debsscc/Game-Data-Automation/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//
// Unknown API paths get a JSON 404; any other unknown path shows the form.
func NewRouter(f handler.Finder, sp handler.StatsProvider, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(sp, startTime))
	v1.POST("/search", handler.Search(f, cc))
	v1.POST("/extract", handler.Extract(f))

	// Browser form
	index := handler.Index()
	r.GET("/", index)
	r.POST("/search", handler.SearchForm(f))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, models.SearchResponse{
				Error: &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: "no such endpoint"},
			})
			return
		}
		index(c)
	})

	return r
}
