// Package domtest holds saved store pages for exercising the extraction
// workflow against dom.Replay documents.
package domtest

import (
	"fmt"
	"strings"

	"github.com/debsscc/Game-Data-Automation/dom"
)

// StoreFront is a front page with the primary search box.
const StoreFront = `<html><body>
<div id="store_nav_area">
  <form id="searchform" action="/search/">
    <input id="store_nav_search_term" name="term" type="text" placeholder="search">
  </form>
</div>
</body></html>`

// StoreFrontAlternate only offers a search box matched by a fallback locator.
const StoreFrontAlternate = `<html><body>
<form action="/search/"><input type="search" class="search_input"></form>
</body></html>`

// StoreFrontNoSearch has no search box at all.
const StoreFrontNoSearch = `<html><body><h1>Maintenance</h1></body></html>`

// Results returns a results page listing the given titles.
func Results(titles ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="search_resultsRows">`)
	for i, t := range titles {
		fmt.Fprintf(&b, `<a class="search_result_row" href="/app/%d/"><span class="title">%s</span></a>`, 620+i, t)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// ResultsLinkOnly lists a result link nested in a row container that only
// the fallback locator can match.
const ResultsLinkOnly = `<html><body>
<div class="search_result_row"><a href="/app/620/">Portal 2</a></div>
</body></html>`

// ProductOptions tweaks the generated product page.
type ProductOptions struct {
	// Price is the purchase price block text.
	Price string
	// Discounted renders the price inside a discount block.
	Discounted bool
	// Reviews is the review description text.
	Reviews string
	// Credits are the developer/publisher link texts, in order.
	Credits []string
	// Description is the short description snippet.
	Description string
	// Tags are the popular user tags.
	Tags []string
}

// DefaultProduct mirrors a typical full-price product page.
var DefaultProduct = ProductOptions{
	Price:       "R$ 59,99",
	Reviews:     "Overwhelmingly Positive (12,345 reviews)",
	Credits:     []string{"Valve", "Valve Publishing"},
	Description: "The sequel to Portal. Features a cooperative two-player mode with its own campaign.",
	Tags:        []string{"Puzzle", "Co-op", "First-Person", "Controller"},
}

// Product renders a product page.
func Product(o ProductOptions) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Portal 2 on Steam</title></head><body>`)
	b.WriteString(`<div class="game_header_image_ctn"><img class="game_header_image_full" src="https://cdn.example.com/apps/620/header.jpg"></div>`)
	if o.Description != "" {
		fmt.Fprintf(&b, `<div class="game_description_snippet">%s</div>`, o.Description)
	}
	b.WriteString(`<div id="userReviews">`)
	b.WriteString(`<div class="user_reviews_summary_row"><span class="game_review_summary positive">Overwhelmingly Positive</span>`)
	if o.Reviews != "" {
		fmt.Fprintf(&b, `<span class="responsive_reviewdesc">%s</span>`, o.Reviews)
	}
	b.WriteString(`</div></div>`)
	b.WriteString(`<div class="release_date"><div class="date">18 Apr, 2011</div></div>`)
	if len(o.Credits) > 0 {
		b.WriteString(`<div class="dev_row"><div class="summary column" id="developers_list">`)
		for _, c := range o.Credits {
			fmt.Fprintf(&b, `<a href="/developer/%s">%s</a>`, strings.ToLower(c), c)
		}
		b.WriteString(`</div></div>`)
	}
	if len(o.Tags) > 0 {
		b.WriteString(`<div class="glance_tags popular_tags">`)
		for _, t := range o.Tags {
			fmt.Fprintf(&b, `<a class="app_tag">%s</a>`, t)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`<div class="details_block">
  <b>Title:</b> Portal 2<br>
  <b>Genre:</b> <a>Action</a>, <a>Adventure</a><br>
  <b>Developer:</b> <a>Valve</a><br>
</div>`)
	b.WriteString(`<table id="languageTable"><tr><th>Language</th></tr>
<tr><td>English</td><td>✔</td></tr><tr><td>Portuguese - Brazil</td><td>✔</td></tr></table>`)
	if o.Price != "" {
		b.WriteString(`<div class="game_area_purchase_game">`)
		if o.Discounted {
			fmt.Fprintf(&b, `<div class="discount_block"><div class="discount_original_price">R$ 99,99</div><div class="discount_final_price">%s</div></div>`, o.Price)
		} else {
			fmt.Fprintf(&b, `<div class="game_purchase_price price">%s</div>`, o.Price)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`<div class="game_area_dlc_row">Portal 2 - Soundtrack</div><div class="game_area_dlc_row">Peer Review</div>`)
	b.WriteString(`<div class="recommended_page_content"><div class="similar_grid"><a>Portal</a><a>The Talos Principle</a><a>Q.U.B.E. 2</a><a></a></div></div>`)
	b.WriteString(`<div class="block responsive_apppage_details_left"><div class="label" data-tooltip-text="Includes Steam Cloud saves">Steam Cloud</div></div>`)
	b.WriteString(`<div id="achievement_block"><div class="achievement">A1</div><div class="achievement">A2</div><div class="achievement">A3</div></div>`)
	b.WriteString(`<div class="game_area_sys_req_full"><ul><li>Storage: 8 GB available space</li></ul></div>`)
	b.WriteString(`<div class="game_rating_icon">ESRB E10+</div>`)
	b.WriteString(`<div class="eventDate">March 3</div>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

// BlankProduct is a product page where nothing matches.
const BlankProduct = `<html><body><p>Sorry, this item is not available in your region.</p></body></html>`

// Flow builds a replay for the full search workflow: store front, results,
// then the product page.
func Flow(product string, results ...string) *dom.Replay {
	r, err := dom.NewReplay(StoreFront, Results(results...), product)
	if err != nil {
		panic(err)
	}
	r.SetURL(2, "https://store.example.com/app/620/Portal_2/")
	return r
}

// MustReplay wraps dom.NewReplay for fixtures known to parse.
func MustReplay(pages ...string) *dom.Replay {
	r, err := dom.NewReplay(pages...)
	if err != nil {
		panic(err)
	}
	return r
}
