package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/dom/domtest"
	"github.com/debsscc/Game-Data-Automation/models"
)

// blockingDoc never finds anything: Wait blocks for the full budget, and
// QueryAll returns no matches.
type blockingDoc struct {
	waits []time.Duration
}

func (d *blockingDoc) Wait(ctx context.Context, _ string, timeout time.Duration) (dom.Element, error) {
	d.waits = append(d.waits, timeout)
	select {
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *blockingDoc) WaitInteractable(ctx context.Context, sel string, timeout time.Duration) (dom.Element, error) {
	return d.Wait(ctx, sel, timeout)
}

func (d *blockingDoc) QueryAll(context.Context, string) ([]dom.Element, error) { return nil, nil }
func (d *blockingDoc) StopLoading(context.Context) error                      { return nil }
func (d *blockingDoc) URL(context.Context) string                             { return "" }

func (d *blockingDoc) WaitNavigated(context.Context, string, time.Duration) error {
	return nil
}

// panicDoc panics on every call.
type panicDoc struct{ blockingDoc }

func (d *panicDoc) Wait(context.Context, string, time.Duration) (dom.Element, error) {
	panic("renderer crashed")
}

func (d *panicDoc) QueryAll(context.Context, string) ([]dom.Element, error) {
	panic("renderer crashed")
}

// faultyElement fails every read.
type faultyElement struct{}

func (faultyElement) Text() (string, error)                  { return "", errors.New("stale element") }
func (faultyElement) Attribute(string) (string, bool, error) { return "", false, errors.New("stale element") }
func (faultyElement) Input(string) error                     { return nil }
func (faultyElement) Submit() error                          { return nil }
func (faultyElement) Activate() error                        { return nil }

type faultyDoc struct{ blockingDoc }

func (d *faultyDoc) Wait(context.Context, string, time.Duration) (dom.Element, error) {
	return faultyElement{}, nil
}

func (d *faultyDoc) QueryAll(context.Context, string) ([]dom.Element, error) {
	return []dom.Element{faultyElement{}}, nil
}

func productDoc(t *testing.T) dom.Document {
	t.Helper()
	return domtest.MustReplay(domtest.Product(domtest.DefaultProduct))
}

func TestText_PrimaryLocator(t *testing.T) {
	r := New(Tiers{})
	res := r.Text(context.Background(), productDoc(t), dom.Locators{".game_review_summary"}, Short)

	assert.Equal(t, "Overwhelmingly Positive", res.Value)
	assert.Equal(t, Waited, res.Outcome)
	assert.True(t, res.OK())
}

func TestText_FallsBackToLaterLocator(t *testing.T) {
	r := New(Tiers{})
	res := r.Text(context.Background(), productDoc(t),
		dom.Locators{".discount_final_price", ".game_purchase_price"}, Short)

	assert.Equal(t, "R$ 59,99", res.Value)
	assert.Equal(t, Scanned, res.Outcome)
	assert.Equal(t, ".game_purchase_price", res.Locator)
}

func TestText_SkipsEmptyMatches(t *testing.T) {
	doc := domtest.MustReplay(`<div class="a"> </div><div class="b">value</div>`)
	res := New(Tiers{}).Text(context.Background(), doc, dom.Locators{".a", ".b"}, Short)
	assert.Equal(t, "value", res.Value)
}

func TestText_NeverMatchingReturnsSentinelWithinBudget(t *testing.T) {
	r := New(Tiers{Short: 20 * time.Millisecond, Mid: 40 * time.Millisecond})
	doc := &blockingDoc{}

	start := time.Now()
	res := r.Text(context.Background(), doc, dom.Locators{".nope", ".also-nope"}, Mid)
	elapsed := time.Since(start)

	assert.Equal(t, models.NA, res.Value)
	assert.Equal(t, Missing, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, elapsed, time.Second)
	require.Len(t, doc.waits, 1, "only the primary locator is waited on")
	assert.Equal(t, 40*time.Millisecond, doc.waits[0])
}

func TestText_PanicIsContained(t *testing.T) {
	res := New(Tiers{}).Text(context.Background(), &panicDoc{}, dom.Locators{".x"}, Short)
	assert.Equal(t, models.NA, res.Value)
	assert.Equal(t, Faulted, res.Outcome)
	assert.Error(t, res.Err)
}

func TestText_ReadFaultDegradesToSentinel(t *testing.T) {
	res := New(Tiers{}).Text(context.Background(), &faultyDoc{}, dom.Locators{".x"}, Short)
	assert.Equal(t, models.NA, res.Value)
	assert.Equal(t, Missing, res.Outcome)
	assert.EqualError(t, res.Err, "stale element")
}

func TestText_EmptyLocators(t *testing.T) {
	res := New(Tiers{}).Text(context.Background(), productDoc(t), nil, Short)
	assert.Equal(t, models.NA, res.Value)
}

func TestAttribute(t *testing.T) {
	r := New(Tiers{})
	doc := productDoc(t)

	res := r.Attribute(context.Background(), doc, dom.Locators{"img.game_header_image_full"}, "src", Short)
	assert.Equal(t, "https://cdn.example.com/apps/620/header.jpg", res.Value)

	res = r.Attribute(context.Background(), doc, dom.Locators{"img.game_header_image_full"}, "alt", Short)
	assert.Equal(t, models.NA, res.Value)
	assert.False(t, res.OK())
}

func TestAttribute_WaitedElementWithoutAttribute(t *testing.T) {
	r := New(Tiers{})
	doc, err := dom.NewReplay(`<html><body><img class="lazy"><img class="loaded" src="header.jpg"></body></html>`)
	require.NoError(t, err)

	res := r.Attribute(context.Background(), doc, dom.Locators{"img.lazy", "img.loaded"}, "src", Short)
	assert.Equal(t, models.NA, res.Value)
	assert.Equal(t, Missing, res.Outcome)
	assert.Equal(t, "img.lazy", res.Locator)

	res = r.Attribute(context.Background(), doc, dom.Locators{"img.absent", "img.lazy", "img.loaded"}, "src", Short)
	assert.Equal(t, "header.jpg", res.Value)
	assert.Equal(t, Scanned, res.Outcome)
	assert.Equal(t, "img.loaded", res.Locator)
}

func TestTexts(t *testing.T) {
	r := New(Tiers{})
	got := r.Texts(context.Background(), productDoc(t), dom.Locators{".missing a", ".similar_grid a"})
	assert.Equal(t, []string{"Portal", "The Talos Principle", "Q.U.B.E. 2"}, got)

	assert.Equal(t, []string{}, r.Texts(context.Background(), &panicDoc{}, dom.Locators{".x"}))
}

func TestCountAndExists(t *testing.T) {
	r := New(Tiers{})
	doc := productDoc(t)

	assert.Equal(t, 2, r.Count(context.Background(), doc, dom.Locators{".game_area_dlc_row", ".dlc_row"}))
	assert.True(t, r.Exists(context.Background(), doc, dom.Locators{".eventDate", ".update_date"}))
	assert.False(t, r.Exists(context.Background(), doc, dom.Locators{".top-seller", ".bestseller"}))
	assert.Equal(t, 0, r.Count(context.Background(), &panicDoc{}, dom.Locators{".x"}))
	assert.Equal(t, 0, r.Count(context.Background(), doc, nil))
}

func TestTiers_Duration(t *testing.T) {
	r := New(Tiers{Mid: 3 * time.Second})
	assert.Equal(t, DefaultTiers.Short, r.Tiers().Duration(Short))
	assert.Equal(t, 3*time.Second, r.Tiers().Duration(Mid))
	assert.Equal(t, "mid", Mid.String())
	assert.Equal(t, "scanned", Scanned.String())
}
