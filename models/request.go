package models

import "strings"

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Query is the free-text game name typed into the store search. Required.
	Query string `json:"query" binding:"required,max=200"`

	// MaxAge allows serving a cached record younger than this many
	// milliseconds. Zero disables the cache for this request.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults normalises the request in place.
func (r *SearchRequest) Defaults() {
	r.Query = strings.TrimSpace(r.Query)
}

// ExtractRequest is the payload for POST /api/v1/extract.
// It runs the field extractor and signal inference against a saved product
// page instead of a live browser session.
type ExtractRequest struct {
	// HTML is the product page markup. Required.
	HTML string `json:"html" binding:"required"`

	// URL is recorded as the record's source_url when set.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// Query is recorded as the record's query when set.
	Query string `json:"query,omitempty" binding:"omitempty,max=200"`
}
