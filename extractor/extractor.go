// Package extractor fills the primary fields of a ProductRecord from a
// product page using a declarative table of field specs.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
	"github.com/debsscc/Game-Data-Automation/resolver"
)

// Kind selects what a field reads from its element.
type Kind int

const (
	// KindText reads the rendered text of the first match.
	KindText Kind = iota
	// KindAttribute reads FieldSpec.Attr of the first match.
	KindAttribute
	// KindList reads the text of every match.
	KindList
)

// FieldSpec describes how one field is resolved.
type FieldSpec struct {
	Name     string
	Locators dom.Locators
	Kind     Kind
	Attr     string
	Tier     resolver.Tier

	// Post rewrites a resolved value. It is not called for models.NA.
	Post func(string) string

	// Set stores a text or attribute value. SetList stores a list value.
	Set     func(*models.ProductRecord, string)
	SetList func(*models.ProductRecord, []string)
}

// Policy holds the field table and the locators of derived rules.
type Policy struct {
	Fields []FieldSpec

	// Discount matches only when the price is a discounted one.
	Discount dom.Locators

	// FreeMarkers mark a price as free (case-insensitive).
	FreeMarkers []string
}

// Validate checks every locator and setter in the policy.
func (p Policy) Validate() error {
	seen := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		if seen[f.Name] {
			return fmt.Errorf("extractor: duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if err := f.Locators.Validate(); err != nil {
			return fmt.Errorf("extractor: field %q: %w", f.Name, err)
		}
		switch {
		case f.Kind == KindList && f.SetList == nil:
			return fmt.Errorf("extractor: list field %q has no SetList", f.Name)
		case f.Kind != KindList && f.Set == nil:
			return fmt.Errorf("extractor: field %q has no Set", f.Name)
		case f.Kind == KindAttribute && f.Attr == "":
			return fmt.Errorf("extractor: attribute field %q names no attribute", f.Name)
		}
	}
	if err := p.Discount.Validate(); err != nil {
		return fmt.Errorf("extractor: discount: %w", err)
	}
	return nil
}

// Extractor resolves every field of the table independently.
type Extractor struct {
	policy Policy
	res    *resolver.Resolver
}

// New creates an Extractor.
func New(policy Policy, res *resolver.Resolver) *Extractor {
	return &Extractor{policy: policy, res: res}
}

// Extract reads every field into rec. A field that faults or does not
// resolve keeps its absent value; no field can stop another from resolving.
func (e *Extractor) Extract(ctx context.Context, doc dom.Document, rec *models.ProductRecord) {
	for _, f := range e.policy.Fields {
		e.extractField(ctx, doc, rec, f)
	}

	e.isolate("status", func() {
		discounted := e.res.Exists(ctx, doc, e.policy.Discount)
		rec.Status = DeriveStatus(rec.Price, discounted, e.policy.FreeMarkers)
	})
}

func (e *Extractor) extractField(ctx context.Context, doc dom.Document, rec *models.ProductRecord, f FieldSpec) {
	e.isolate(f.Name, func() {
		if f.Kind == KindList {
			f.SetList(rec, e.res.Texts(ctx, doc, f.Locators))
			return
		}

		var r resolver.Result
		if f.Kind == KindAttribute {
			r = e.res.Attribute(ctx, doc, f.Locators, f.Attr, f.Tier)
		} else {
			r = e.res.Text(ctx, doc, f.Locators, f.Tier)
		}
		if !r.OK() {
			slog.Debug("extractor: field unresolved",
				"field", f.Name, "outcome", r.Outcome.String(), "error", r.Err)
		}

		v := r.Value
		if f.Post != nil && !models.IsNA(v) {
			v = f.Post(v)
		}
		if v == "" {
			v = models.NA
		}
		f.Set(rec, v)
	})
}

// isolate runs fn, converting a panic into a debug log so the rest of the
// record still resolves.
func (e *Extractor) isolate(field string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("extractor: field faulted", "field", field, "panic", p)
		}
	}()
	fn()
}

// DeriveStatus classifies a price: free when it carries a free marker,
// on sale when the discount block is present, normal otherwise.
func DeriveStatus(price string, discounted bool, freeMarkers []string) string {
	if !models.IsNA(price) && ContainsAny(strings.ToLower(price), freeMarkers) {
		return models.StatusFree
	}
	if discounted {
		return models.StatusOnSale
	}
	return models.StatusNormal
}

// ReviewCount returns the text strictly between the first "(" and the last
// ")", or the input unchanged when the delimiters are missing.
func ReviewCount(s string) string {
	open := strings.Index(s, "(")
	closing := strings.LastIndex(s, ")")
	if open < 0 || closing <= open {
		return s
	}
	return strings.TrimSpace(s[open+1 : closing])
}

// Genre returns the first "Genre:" or "Genres:" line of a details block with
// the label removed, or models.NA.
func Genre(block string) string {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		for _, label := range []string{"Genres:", "Genre:"} {
			if rest, ok := strings.CutPrefix(line, label); ok {
				if g := strings.TrimSpace(rest); g != "" {
					return g
				}
				return models.NA
			}
		}
	}
	return models.NA
}

// Credits sets the developer from the first credit and the publisher from
// the second, falling back to the developer when there is only one.
func Credits(rec *models.ProductRecord, credits []string) {
	if len(credits) == 0 {
		rec.Developer, rec.Publisher = models.NA, models.NA
		return
	}
	rec.Developer = credits[0]
	rec.Publisher = credits[0]
	if len(credits) > 1 {
		rec.Publisher = credits[1]
	}
}

// JoinList joins a list with ", ", or returns models.NA when it is empty.
func JoinList(items []string) string {
	if len(items) == 0 {
		return models.NA
	}
	return strings.Join(items, ", ")
}

// ContainsAny reports whether s contains any of the (lower-case) words.
func ContainsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
