package feeds_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsy/feeds"
	"newsy/models"
)

type fakeSource struct {
	feeds map[string][]feeds.Entry
	errs  map[string]error
	calls []string
}

func (f *fakeSource) Fetch(ctx context.Context, url string) ([]feeds.Entry, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return f.feeds[url], nil
}

type fakeStore struct {
	inserted []models.CandidateItem
	seen     map[string]bool
	err      error
}

func (f *fakeStore) InsertArticleIfAbsent(ctx context.Context, item models.CandidateItem, fetchedAt time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[item.URL] {
		return false, nil
	}
	f.seen[item.URL] = true
	f.inserted = append(f.inserted, item)
	return true, nil
}

func (f *fakeStore) CountArticles(ctx context.Context) (int64, error) {
	return int64(len(f.inserted)), nil
}

func entry(title, link string) feeds.Entry {
	return feeds.Entry{Title: title, Link: link, Summary: "a new llm model release"}
}

func newIngestor(source feeds.FeedSource, store feeds.Store, opts ...feeds.IngestorOption) *feeds.Ingestor {
	opts = append([]feeds.IngestorOption{feeds.WithPace(0)}, opts...)
	return feeds.NewIngestor(source, store, []string{"llm", "machine learning"}, opts...)
}

func TestIngestStoresMatchingEntries(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {
			entry("New LLM released", "https://example.com/a"),
			{Title: "Gardening tips", Link: "https://example.com/b", Summary: "tomatoes"},
		},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{Name: "Tech Site", PrimaryURL: "https://example.com/feed"}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Found)
	assert.Equal(t, 1, stats.Added)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "https://example.com/a", store.inserted[0].URL)
	assert.Equal(t, "Tech Site", store.inserted[0].Source)
}

func TestIngestAISourceBypassesKeywordFilter(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {
			{Title: "Company update", Link: "https://example.com/a", Summary: "quarterly report"},
		},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{Name: "OpenAI News", PrimaryURL: "https://example.com/feed"}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestIngestRejectsEntriesMissingTitleOrURL(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {
			{Title: "", Link: "https://example.com/a", Summary: "llm"},
			{Title: "No link", Link: "  ", Summary: "llm"},
			entry("Valid", "https://example.com/c"),
		},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{Name: "Tech Site", PrimaryURL: "https://example.com/feed"}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestIngestPerFeedLimit(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {
			entry("One", "https://example.com/1"),
			entry("Two", "https://example.com/2"),
			entry("Three", "https://example.com/3"),
		},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{Name: "Tech Site", PrimaryURL: "https://example.com/feed"}}, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
}

func TestIngestDuplicateURLIsNoOp(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {
			entry("Same story", "https://example.com/a"),
			entry("Same story again", "https://example.com/a"),
		},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{Name: "Tech Site", PrimaryURL: "https://example.com/feed"}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Found)
	assert.Equal(t, 1, stats.Added)
}

func TestIngestFallbackOnPrimaryError(t *testing.T) {
	source := &fakeSource{
		errs: map[string]error{"https://example.com/primary": errors.New("boom")},
		feeds: map[string][]feeds.Entry{
			"https://example.com/fallback": {entry("Story", "https://example.com/a")},
		},
	}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{
			Name:        "Tech Site",
			PrimaryURL:  "https://example.com/primary",
			FallbackURL: "https://example.com/fallback",
		}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, []string{"https://example.com/primary", "https://example.com/fallback"}, source.calls)
}

func TestIngestFallbackOnEmptyPrimary(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/primary":  {},
		"https://example.com/fallback": {entry("Story", "https://example.com/a")},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{
			Name:        "Tech Site",
			PrimaryURL:  "https://example.com/primary",
			FallbackURL: "https://example.com/fallback",
		}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestIngestSkipsSourceWhenBothFail(t *testing.T) {
	source := &fakeSource{
		errs: map[string]error{
			"https://example.com/primary":  errors.New("boom"),
			"https://example.com/fallback": errors.New("boom too"),
		},
		feeds: map[string][]feeds.Entry{
			"https://example.com/other": {entry("Story", "https://example.com/a")},
		},
	}
	store := &fakeStore{}

	stats, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{
			{Name: "Broken", PrimaryURL: "https://example.com/primary", FallbackURL: "https://example.com/fallback"},
			{Name: "Tech Site", PrimaryURL: "https://example.com/other"},
		}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestIngestStripsMarkupAndTruncates(t *testing.T) {
	long := strings.Repeat("x", 600)
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {
			{Title: "Story", Link: "https://example.com/a", Summary: "<p>llm " + long + "</p>"},
		},
	}}
	store := &fakeStore{}

	_, err := newIngestor(source, store).Run(context.Background(),
		[]models.LogicalSource{{Name: "Tech Site", PrimaryURL: "https://example.com/feed"}}, 10)

	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	content := store.inserted[0].Content
	assert.Len(t, []rune(content), 500)
	assert.NotContains(t, content, "<p>")
}

func TestIngestDryRun(t *testing.T) {
	source := &fakeSource{feeds: map[string][]feeds.Entry{
		"https://example.com/feed": {entry("Story", "https://example.com/a")},
	}}
	store := &fakeStore{}

	stats, err := newIngestor(source, store, feeds.WithDryRun(true)).Run(context.Background(),
		[]models.LogicalSource{{Name: "Tech Site", PrimaryURL: "https://example.com/feed"}}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Empty(t, store.inserted)
}
