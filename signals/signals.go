// Package signals derives market signals from an extracted record and the
// product page it came from.
package signals

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/extractor"
	"github.com/debsscc/Game-Data-Automation/models"
	"github.com/debsscc/Game-Data-Automation/resolver"
)

// Keywords are the word sets matched against description and tags.
type Keywords struct {
	// WholeWords only matches a keyword standing on its own, so "mod" no
	// longer matches "modern". Off by default: plain substring matching.
	WholeWords bool


	Multiplayer  []string
	Coop         []string
	Mods         []string
	VR           []string
	Controller   []string
	TradingCards []string
}

// Policy holds the keyword sets, locators and limits used by the engine.
type Policy struct {
	Keywords Keywords

	Competitors  dom.Locators
	TopSeller    dom.Locators
	DLC          dom.Locators
	Updates      dom.Locators
	CloudSaves   dom.Locators
	Achievements dom.Locators
	SystemReqs   dom.Locators
	AgeRating    dom.Locators

	// CompetitorLimit caps the competitor list.
	CompetitorLimit int

	// CurrencyTag prefixes a normalized price.
	CurrencyTag string

	FreeMarkers []string

	// SizeUnits must appear in the requirements text for it to count as a
	// download size.
	SizeUnits []string
}

// DefaultPolicy matches the store's product pages.
var DefaultPolicy = Policy{
	Keywords: Keywords{
		Multiplayer:  []string{"multiplayer", "online", "pvp", "co-op", "coop", "competitive"},
		Coop:         []string{"co-op", "cooperative", "coop"},
		Mods:         []string{"workshop", "mod", "modding", "user-generated"},
		VR:           []string{"vr", "virtual reality", "htc vive", "oculus rift"},
		Controller:   []string{"controller", "gamepad", "xbox", "playstation"},
		TradingCards: []string{"trading cards", "steam cards"},
	},
	Competitors:     dom.Locators{".recommended_page_content .similar_grid a", ".similar_games_table a"},
	TopSeller:       dom.Locators{".top-seller", ".bestseller"},
	DLC:             dom.Locators{".game_area_dlc_row", ".dlc_row"},
	Updates:         dom.Locators{".eventDate", ".update_date"},
	CloudSaves:      dom.Locators{"[data-tooltip-text*='cloud']", "[data-tooltip-text*='Cloud']", "[src*='cloud_saves']"},
	Achievements:    dom.Locators{".achievement", "[class*='achievement']"},
	SystemReqs:      dom.Locators{".game_area_sys_req_full", ".game_area_sys_req li"},
	AgeRating:       dom.Locators{".game_rating_icon", ".esrb_rating"},
	CompetitorLimit: 5,
	CurrencyTag:     "R$",
	FreeMarkers:     []string{"free", "gratuito"},
	SizeUnits:       []string{"GB", "MB"},
}

// Validate checks every locator in the policy.
func (p Policy) Validate() error {
	for name, locs := range map[string]dom.Locators{
		"competitors":  p.Competitors,
		"top seller":   p.TopSeller,
		"dlc":          p.DLC,
		"updates":      p.Updates,
		"cloud saves":  p.CloudSaves,
		"achievements": p.Achievements,
		"system reqs":  p.SystemReqs,
		"age rating":   p.AgeRating,
	} {
		if err := locs.Validate(); err != nil {
			return fmt.Errorf("signals: %s: %w", name, err)
		}
	}
	if p.CompetitorLimit < 0 {
		return fmt.Errorf("signals: negative competitor limit %d", p.CompetitorLimit)
	}
	return nil
}

// Engine computes market signals.
type Engine struct {
	policy Policy
	res    *resolver.Resolver
}

// New creates an Engine.
func New(policy Policy, res *resolver.Resolver) *Engine {
	return &Engine{policy: policy, res: res}
}

// Infer computes every signal for rec on doc. Each signal is computed on its
// own; a fault in one leaves it at its absent value and the others intact.
// It never reads the signals already on rec.
func (e *Engine) Infer(ctx context.Context, doc dom.Document, rec *models.ProductRecord) models.MarketSignals {
	s := models.NewMarketSignals()
	p := e.policy

	isolate("keywords", func() {
		kw := MatchKeywords(rec.Description, rec.Tags, p.Keywords)
		s.Multiplayer = kw.Multiplayer
		s.Coop = kw.Coop
		s.ModSupport = kw.ModSupport
		s.VRSupport = kw.VRSupport
		s.ControllerSupport = kw.ControllerSupport
		s.TradingCards = kw.TradingCards
	})
	isolate("competitors", func() {
		s.Competitors = Cap(e.res.Texts(ctx, doc, p.Competitors), p.CompetitorLimit)
	})
	isolate("top_seller", func() { s.TopSeller = e.res.Exists(ctx, doc, p.TopSeller) })
	isolate("time_on_store", func() {
		if !models.IsNA(rec.ReleaseDate) {
			s.TimeOnStore = rec.ReleaseDate
		}
	})
	isolate("dlc_count", func() { s.DLCCount = e.res.Count(ctx, doc, p.DLC) })
	isolate("download_size", func() {
		reqs := e.res.Text(ctx, doc, p.SystemReqs, resolver.Short).Value
		s.DownloadSize = DownloadSize(reqs, p.SizeUnits)
	})
	isolate("recent_updates", func() { s.RecentUpdates = e.res.Exists(ctx, doc, p.Updates) })
	isolate("cloud_saves", func() { s.CloudSaves = e.res.Exists(ctx, doc, p.CloudSaves) })
	isolate("achievement_count", func() { s.AchievementCount = e.res.Count(ctx, doc, p.Achievements) })
	isolate("price_range", func() { s.PriceRange = NormalizePrice(rec.Price, p.CurrencyTag, p.FreeMarkers) })
	isolate("age_rating", func() { s.AgeRating = e.res.Text(ctx, doc, p.AgeRating, resolver.Short).Value })

	return s
}

func isolate(signal string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("signals: signal faulted", "signal", signal, "panic", p)
		}
	}()
	fn()
}

// KeywordSignals holds the keyword-derived booleans.
type KeywordSignals struct {
	Multiplayer       bool
	Coop              bool
	ModSupport        bool
	VRSupport         bool
	ControllerSupport bool
	TradingCards      bool
}

// MatchKeywords tests the lower-cased "description tags" text against each
// keyword set. Absent inputs are treated as empty text.
func MatchKeywords(description, tags string, kw Keywords) KeywordSignals {
	text := strings.ToLower(orEmpty(description) + " " + orEmpty(tags))
	match := extractor.ContainsAny
	if kw.WholeWords {
		match = containsAnyWord
	}
	return KeywordSignals{
		Multiplayer:       match(text, kw.Multiplayer),
		Coop:              match(text, kw.Coop),
		ModSupport:        match(text, kw.Mods),
		VRSupport:         match(text, kw.VR),
		ControllerSupport: match(text, kw.Controller),
		TradingCards:      match(text, kw.TradingCards),
	}
}

// containsAnyWord reports whether any word occurs in s bounded on both sides
// by a non-alphanumeric rune or the string edge.
func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if w != "" && containsWord(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	for from := 0; from <= len(s)-len(word); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func orEmpty(s string) string {
	if models.IsNA(s) {
		return ""
	}
	return s
}

// numericToken accepts both "." and "," as grouping or decimal separators,
// so "1.299,99" and "1,299.99" come through whole.
var numericToken = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)

// NormalizePrice returns "Free" for a free price, "<tag> <first number>"
// for a priced one, and models.NA otherwise.
func NormalizePrice(price, currencyTag string, freeMarkers []string) string {
	if models.IsNA(price) {
		return models.NA
	}
	if extractor.ContainsAny(strings.ToLower(price), freeMarkers) {
		return models.StatusFree
	}
	tok := numericToken.FindString(price)
	if tok == "" {
		return models.NA
	}
	return strings.TrimSpace(currencyTag + " " + tok)
}

// DownloadSize returns reqs when it mentions one of units, else models.NA.
func DownloadSize(reqs string, units []string) string {
	if models.IsNA(reqs) {
		return models.NA
	}
	for _, u := range units {
		if strings.Contains(reqs, u) {
			return reqs
		}
	}
	return models.NA
}

// Cap truncates items to at most limit entries. A limit of zero or less
// means no cap.
func Cap(items []string, limit int) []string {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
