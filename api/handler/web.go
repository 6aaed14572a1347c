package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/debsscc/Game-Data-Automation/models"
)

// Row is one label/value line on the result page.
type Row struct {
	Label string
	Value string
}

// Index returns a handler that renders the search form.
func Index() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", formData("", ""))
	}
}

func formData(query, errMsg string) gin.H {
	return gin.H{"Query": query, "Error": errMsg}
}

// SearchForm returns a handler for POST /search. It renders the result page
// on success and the form with an error message otherwise.
func SearchForm(f Finder) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.PostForm("query"))
		if query == "" {
			c.HTML(http.StatusBadRequest, "index.html", formData("", "Please enter a game name."))
			return
		}

		rec, err := f.AttemptExtraction(c.Request.Context(), query)
		if err != nil {
			se := models.AsScrapeError(err)
			slog.Info("form search failed", "query", query, "code", se.Code)
			c.HTML(mapErrorToStatus(se), "index.html", formData(query, formMessage(query, se)))
			return
		}

		c.HTML(http.StatusOK, "result.html", gin.H{
			"Query":       query,
			"Record":      rec,
			"Rows":        recordRows(rec),
			"Competitors": rec.Competitors,
		})
	}
}

func formMessage(query string, se *models.ScrapeError) string {
	switch {
	case models.IsNavigationFailure(se):
		return fmt.Sprintf("Could not find information for %q.", query)
	case se.Code == models.ErrCodeSessionUnavailable:
		return "The browser is busy or unavailable. Try again shortly."
	default:
		return "Error while searching: " + se.Message
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// recordRows lays a record out in display order.
func recordRows(r *models.ProductRecord) []Row {
	return []Row{
		{"Price", r.Price},
		{"Status", r.Status},
		{"Rating", r.Rating},
		{"Reviews", r.ReviewCount},
		{"Release date", r.ReleaseDate},
		{"Developer", r.Developer},
		{"Publisher", r.Publisher},
		{"Genre", r.Genre},
		{"Tags", r.Tags},
		{"Languages", r.Languages},
		{"Top seller", yesNo(r.TopSeller)},
		{"Time on store", r.TimeOnStore},
		{"DLCs", strconv.Itoa(r.DLCCount)},
		{"Multiplayer", yesNo(r.Multiplayer)},
		{"Co-op", yesNo(r.Coop)},
		{"Mod support", yesNo(r.ModSupport)},
		{"Download size", r.DownloadSize},
		{"VR support", yesNo(r.VRSupport)},
		{"Recent updates", yesNo(r.RecentUpdates)},
		{"Cloud saves", yesNo(r.CloudSaves)},
		{"Controller support", yesNo(r.ControllerSupport)},
		{"Achievements", strconv.Itoa(r.AchievementCount)},
		{"Trading cards", yesNo(r.TradingCards)},
		{"Price range", r.PriceRange},
		{"Age rating", r.AgeRating},
	}
}
