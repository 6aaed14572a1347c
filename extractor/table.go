package extractor

import (
	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
	"github.com/debsscc/Game-Data-Automation/resolver"
)

// DefaultFields is the field table for the store's product pages.
var DefaultFields = []FieldSpec{
	{
		Name:     "price",
		Locators: dom.Locators{".discount_final_price", ".game_purchase_price"},
		Tier:     resolver.Short,
		Set:      func(r *models.ProductRecord, v string) { r.Price = v },
	},
	{
		Name:     "rating",
		Locators: dom.Locators{".game_review_summary"},
		Tier:     resolver.Short,
		Set:      func(r *models.ProductRecord, v string) { r.Rating = v },
	},
	{
		Name:     "review_count",
		Locators: dom.Locators{".responsive_reviewdesc", ".user_reviews_summary_row .responsive_hidden"},
		Tier:     resolver.Short,
		Post:     ReviewCount,
		Set:      func(r *models.ProductRecord, v string) { r.ReviewCount = v },
	},
	{
		Name:     "release_date",
		Locators: dom.Locators{".date", ".release_date .date"},
		Tier:     resolver.Short,
		Set:      func(r *models.ProductRecord, v string) { r.ReleaseDate = v },
	},
	{
		Name:     "credits",
		Locators: dom.Locators{".dev_row a", "#developers_list a"},
		Kind:     KindList,
		SetList:  Credits,
	},
	{
		Name:     "description",
		Locators: dom.Locators{".game_description_snippet"},
		Tier:     resolver.Short,
		Set:      func(r *models.ProductRecord, v string) { r.Description = v },
	},
	{
		Name:     "tags",
		Locators: dom.Locators{".popular_tags a", ".glance_tags a.app_tag"},
		Kind:     KindList,
		SetList:  func(r *models.ProductRecord, v []string) { r.Tags = JoinList(v) },
	},
	{
		Name:     "genre",
		Locators: dom.Locators{"div.details_block", "#genresAndManufacturer"},
		Tier:     resolver.Short,
		Post:     Genre,
		Set:      func(r *models.ProductRecord, v string) { r.Genre = v },
	},
	{
		Name:     "languages",
		Locators: dom.Locators{"#languageTable tr td:nth-child(1)"},
		Kind:     KindList,
		SetList:  func(r *models.ProductRecord, v []string) { r.Languages = JoinList(v) },
	},
	{
		Name:     "image_url",
		Locators: dom.Locators{"img.game_header_image_full", ".game_header_image_ctn img"},
		Kind:     KindAttribute,
		Attr:     "src",
		Tier:     resolver.Short,
		Set:      func(r *models.ProductRecord, v string) { r.ImageURL = v },
	},
}

// DefaultPolicy pairs DefaultFields with the store's price rules.
var DefaultPolicy = Policy{
	Fields:      DefaultFields,
	Discount:    dom.Locators{".discount_final_price"},
	FreeMarkers: []string{"free", "gratuito"},
}
