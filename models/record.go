package models

// NA is the placeholder for any string field that could not be resolved.
const NA = "N/A"

// Price status values.
const (
	StatusFree   = "Free"
	StatusOnSale = "OnSale"
	StatusNormal = "Normal"
)

// ProductRecord is the flat result of one extraction. Every field is always
// present: NewProductRecord fills strings with NA, booleans with false,
// counts with 0 and lists with an empty slice before any resolution runs.
type ProductRecord struct {
	// Query is the search text the record was produced for.
	Query string `json:"query"`

	// SourceURL is the product page the fields were read from.
	SourceURL string `json:"source_url"`

	Price       string `json:"price"`
	Status      string `json:"status"`
	Rating      string `json:"rating"`
	ReviewCount string `json:"review_count"`
	ReleaseDate string `json:"release_date"`
	Developer   string `json:"developer"`
	Publisher   string `json:"publisher"`
	Description string `json:"description"`

	// Tags and Languages are comma-joined lists.
	Tags      string `json:"tags"`
	Genre     string `json:"genre"`
	Languages string `json:"languages"`
	ImageURL  string `json:"image_url"`

	MarketSignals
}

// MarketSignals are secondary fields derived from the primary record and the
// live document. They are computed even when every primary field is NA.
type MarketSignals struct {
	Competitors       []string `json:"competitors"`
	TopSeller         bool     `json:"top_seller"`
	TimeOnStore       string   `json:"time_on_store"`
	DLCCount          int      `json:"dlc_count"`
	Multiplayer       bool     `json:"multiplayer"`
	Coop              bool     `json:"coop"`
	ModSupport        bool     `json:"mod_support"`
	DownloadSize      string   `json:"download_size"`
	VRSupport         bool     `json:"vr_support"`
	RecentUpdates     bool     `json:"recent_updates"`
	CloudSaves        bool     `json:"cloud_saves"`
	ControllerSupport bool     `json:"controller_support"`
	AchievementCount  int      `json:"achievement_count"`
	TradingCards      bool     `json:"trading_cards"`
	PriceRange        string   `json:"price_range"`
	AgeRating         string   `json:"age_rating"`
}

// FieldNames lists every key of a serialised ProductRecord.
var FieldNames = []string{
	"query", "source_url",
	"price", "status", "rating", "review_count", "release_date",
	"developer", "publisher", "description", "tags", "genre",
	"languages", "image_url",
	"competitors", "top_seller", "time_on_store", "dlc_count",
	"multiplayer", "coop", "mod_support", "download_size", "vr_support",
	"recent_updates", "cloud_saves", "controller_support",
	"achievement_count", "trading_cards", "price_range", "age_rating",
}

// NewProductRecord returns a record with every field set to its absent value.
func NewProductRecord(query string) *ProductRecord {
	return &ProductRecord{
		Query:         query,
		SourceURL:     NA,
		Price:         NA,
		Status:        NA,
		Rating:        NA,
		ReviewCount:   NA,
		ReleaseDate:   NA,
		Developer:     NA,
		Publisher:     NA,
		Description:   NA,
		Tags:          NA,
		Genre:         NA,
		Languages:     NA,
		ImageURL:      NA,
		MarketSignals: NewMarketSignals(),
	}
}

// NewMarketSignals returns signals with every field set to its absent value.
func NewMarketSignals() MarketSignals {
	return MarketSignals{
		Competitors:  []string{},
		TimeOnStore:  NA,
		DownloadSize: NA,
		PriceRange:   NA,
		AgeRating:    NA,
	}
}

// IsNA reports whether v carries no information.
func IsNA(v string) bool {
	return v == "" || v == NA
}
