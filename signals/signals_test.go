package signals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsscc/Game-Data-Automation/dom/domtest"
	"github.com/debsscc/Game-Data-Automation/models"
	"github.com/debsscc/Game-Data-Automation/resolver"
)

func engine() *Engine {
	return New(DefaultPolicy, resolver.New(resolver.Tiers{}))
}

func TestInfer_ProductPage(t *testing.T) {
	doc := domtest.MustReplay(domtest.Product(domtest.DefaultProduct))
	rec := models.NewProductRecord("Portal 2")
	rec.Price = "R$ 59,99"
	rec.ReleaseDate = "18 Apr, 2011"
	rec.Description = domtest.DefaultProduct.Description
	rec.Tags = "Puzzle, Co-op, First-Person, Controller"

	s := engine().Infer(context.Background(), doc, rec)

	assert.Equal(t, []string{"Portal", "The Talos Principle", "Q.U.B.E. 2"}, s.Competitors)
	assert.False(t, s.TopSeller)
	assert.Equal(t, "18 Apr, 2011", s.TimeOnStore)
	assert.Equal(t, 2, s.DLCCount)
	assert.True(t, s.Multiplayer)
	assert.True(t, s.Coop)
	assert.True(t, s.ControllerSupport)
	assert.False(t, s.TradingCards)
	assert.Equal(t, "Storage: 8 GB available space", s.DownloadSize)
	assert.True(t, s.RecentUpdates)
	assert.True(t, s.CloudSaves)
	assert.Equal(t, 3, s.AchievementCount)
	assert.Equal(t, "R$ 59,99", s.PriceRange)
	assert.Equal(t, "ESRB E10+", s.AgeRating)
}

func TestInfer_SentinelRecordOnBlankPage(t *testing.T) {
	doc := domtest.MustReplay(domtest.BlankProduct)
	rec := models.NewProductRecord("nothing")

	var s models.MarketSignals
	require.NotPanics(t, func() {
		s = engine().Infer(context.Background(), doc, rec)
	})
	assert.Equal(t, models.NewMarketSignals(), s)
}

func TestInfer_CompetitorsAreCapped(t *testing.T) {
	page := `<div class="recommended_page_content"><div class="similar_grid">
<a>A</a><a>B</a><a>C</a><a>D</a><a>E</a><a>F</a><a>G</a></div></div>`
	s := engine().Infer(context.Background(), domtest.MustReplay(page), models.NewProductRecord("q"))
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, s.Competitors)
}

func TestMatchKeywords(t *testing.T) {
	kw := DefaultPolicy.Keywords

	got := MatchKeywords("A story-driven puzzle game.", "Co-op, Puzzle", kw)
	assert.True(t, got.Coop)

	got = MatchKeywords("A quiet single-player story.", "Puzzle, Atmospheric", kw)
	assert.False(t, got.Multiplayer)
	assert.False(t, got.Coop)

	got = MatchKeywords("Supports Steam Trading Cards and the Workshop.", models.NA, kw)
	assert.True(t, got.TradingCards)
	assert.True(t, got.ModSupport)

	assert.Equal(t, KeywordSignals{}, MatchKeywords(models.NA, models.NA, kw))
}

func TestMatchKeywords_WholeWords(t *testing.T) {
	kw := DefaultPolicy.Keywords
	desc := "A tense mode of survival in this modern story."

	assert.True(t, MatchKeywords(desc, models.NA, kw).ModSupport, "substring matching is the default")

	kw.WholeWords = true
	got := MatchKeywords(desc, models.NA, kw)
	assert.False(t, got.ModSupport)

	got = MatchKeywords("Full mod support. Local Co-op.", "VR, Controller", kw)
	assert.True(t, got.ModSupport)
	assert.True(t, got.Coop)
	assert.True(t, got.VRSupport)
	assert.True(t, got.ControllerSupport)
	assert.False(t, MatchKeywords("The studio's whole oeuvre in one box.", models.NA, kw).VRSupport)
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"R$ 59,99", "R$ 59,99"},
		{"R$ 1,299.90", "R$ 1,299.90"},
		{"R$ 1.299,99", "R$ 1.299,99"},
		{"R$ 59,99.", "R$ 59,99"},
		{"$7", "R$ 7"},
		{"Free to Play", models.StatusFree},
		{"Gratuito", models.StatusFree},
		{models.NA, models.NA},
		{"", models.NA},
		{"Coming soon", models.NA},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePrice(tt.price, "R$", DefaultPolicy.FreeMarkers))
		})
	}
}

func TestDownloadSize(t *testing.T) {
	units := DefaultPolicy.SizeUnits
	assert.Equal(t, "Storage: 500 MB", DownloadSize("Storage: 500 MB", units))
	assert.Equal(t, models.NA, DownloadSize("OS: Windows 10", units))
	assert.Equal(t, models.NA, DownloadSize(models.NA, units))
}

func TestCap(t *testing.T) {
	assert.Equal(t, []string{"a"}, Cap([]string{"a", "b"}, 1))
	assert.Equal(t, []string{"a", "b"}, Cap([]string{"a", "b"}, 0))
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy.Validate())

	bad := DefaultPolicy
	bad.AgeRating = []string{"[data-x"}
	assert.Error(t, bad.Validate())
}
