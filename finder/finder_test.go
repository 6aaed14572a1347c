package finder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsscc/Game-Data-Automation/config"
	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/dom/domtest"
	"github.com/debsscc/Game-Data-Automation/models"
)

// countingSessions hands out one prepared session and counts the calls.
type countingSessions struct {
	mu         sync.Mutex
	session    dom.Session
	acquireErr error
	acquires   int
	releases   int
}

func (c *countingSessions) Acquire(context.Context) (dom.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.acquireErr != nil {
		return nil, c.acquireErr
	}
	c.acquires++
	return c.session, nil
}

func (c *countingSessions) Release(dom.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releases++
}

// failingSession cannot open any page.
type failingSession struct{}

func (failingSession) Open(context.Context, string) (dom.Document, error) {
	return nil, errors.New("net::ERR_CONNECTION_REFUSED")
}

// panickingSession opens a document that crashes on first use.
type panickingSession struct{}

func (panickingSession) Open(context.Context, string) (dom.Document, error) {
	return panickingDoc{}, nil
}

type panickingDoc struct{ dom.Document }

func (panickingDoc) Wait(context.Context, string, time.Duration) (dom.Element, error) {
	panic("renderer crashed")
}

func testConfig() config.ExtractionConfig {
	cfg := config.Load().Extraction
	cfg.ShortWait = 10 * time.Millisecond
	cfg.MidWait = 20 * time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func newFinder(sessions Sessions) *Finder {
	cfg := testConfig()
	return New(sessions, cfg, DefaultPolicies(cfg))
}

func TestAttemptExtraction_SingleResult(t *testing.T) {
	product := domtest.ProductOptions{Price: "R$ 19,99", Discounted: true, Reviews: "Very Positive (512 reviews)"}
	sessions := &countingSessions{session: domtest.Flow(domtest.Product(product), "Portal 2")}

	rec, err := newFinder(sessions).AttemptExtraction(context.Background(), "Portal 2")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Portal 2", rec.Query)
	assert.Equal(t, "https://store.example.com/app/620/Portal_2/", rec.SourceURL)
	assert.Equal(t, models.StatusOnSale, rec.Status)
	assert.Equal(t, "R$ 19,99", rec.PriceRange)
	assert.Equal(t, "512 reviews", rec.ReviewCount)
	assert.Equal(t, 1, sessions.acquires)
	assert.Equal(t, 1, sessions.releases)
}

func TestAttemptExtraction_ZeroResults(t *testing.T) {
	replay := domtest.MustReplay(domtest.StoreFront, domtest.Results())
	sessions := &countingSessions{session: replay}

	rec, err := newFinder(sessions).AttemptExtraction(context.Background(), "zzzz-no-such-game")

	assert.Nil(t, rec)
	assert.Equal(t, models.ErrCodeNoResults, models.AsScrapeError(err).Code)
	assert.Equal(t, 1, sessions.releases)
}

func TestAttemptExtraction_ReleasesOnEveryPath(t *testing.T) {
	tests := []struct {
		name     string
		session  dom.Session
		wantCode string
	}{
		{"no search box", domtest.MustReplay(domtest.StoreFrontNoSearch), models.ErrCodeNoSearchBox},
		{"no results", domtest.MustReplay(domtest.StoreFront, domtest.Results()), models.ErrCodeNoResults},
		{"open fails", failingSession{}, models.ErrCodeNavigation},
		{"panic", panickingSession{}, models.ErrCodeInternal},
		{"blank product", domtest.Flow(domtest.BlankProduct, "Portal 2"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &countingSessions{session: tt.session}

			rec, err := newFinder(sessions).AttemptExtraction(context.Background(), "Portal 2")

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.NotNil(t, rec)
			} else {
				assert.Nil(t, rec)
				assert.Equal(t, tt.wantCode, models.AsScrapeError(err).Code)
			}
			assert.Equal(t, 1, sessions.acquires)
			assert.Equal(t, 1, sessions.releases)
		})
	}
}

func TestAttemptExtraction_AcquireFailureReleasesNothing(t *testing.T) {
	sessions := &countingSessions{
		acquireErr: models.NewScrapeError(models.ErrCodeSessionUnavailable, "no browser", nil),
	}

	rec, err := newFinder(sessions).AttemptExtraction(context.Background(), "Portal 2")

	assert.Nil(t, rec)
	assert.Equal(t, models.ErrCodeSessionUnavailable, models.AsScrapeError(err).Code)
	assert.Equal(t, 0, sessions.releases)
}

func TestExtractDocument_EveryKeyPresent(t *testing.T) {
	doc := domtest.MustReplay(domtest.BlankProduct)

	rec := newFinder(&countingSessions{}).ExtractDocument(context.Background(), doc, "nothing")

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))

	for _, name := range models.FieldNames {
		assert.Contains(t, keys, name)
	}
	assert.Len(t, keys, len(models.FieldNames))
	assert.Equal(t, models.NA, rec.Price)
	assert.Equal(t, []any{}, keys["competitors"])
}

func TestDefaultPolicies(t *testing.T) {
	cfg := testConfig()
	cfg.CurrencyTag = "US$"
	cfg.CompetitorLimit = 3
	cfg.KeywordWholeWords = true

	p := DefaultPolicies(cfg)

	require.NoError(t, p.Validate())
	assert.Equal(t, "US$", p.Signals.CurrencyTag)
	assert.Equal(t, 3, p.Signals.CompetitorLimit)
	assert.True(t, p.Signals.Keywords.WholeWords)
	assert.False(t, DefaultPolicies(testConfig()).Signals.Keywords.WholeWords)
}
