package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsy/db"
	"newsy/models"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsy.db")
	require.NoError(t, db.Migrate(path))

	database, err := db.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func item(url, title, source string) models.CandidateItem {
	return models.CandidateItem{URL: url, Title: title, Source: source, Content: "content"}
}

func TestInsertArticleIfAbsent(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	inserted, err := database.InsertArticleIfAbsent(ctx, item("https://example.com/a", "First", "Alpha"), now)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same URL again is a no-op, not an error.
	inserted, err = database.InsertArticleIfAbsent(ctx, item("https://example.com/a", "Duplicate", "Beta"), now)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := database.CountArticles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestArticleLifecycle(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := database.InsertArticleIfAbsent(ctx, item("https://example.com/a", "First", "Alpha"), base)
	require.NoError(t, err)
	_, err = database.InsertArticleIfAbsent(ctx, item("https://example.com/b", "Second", "Beta"), base.Add(time.Hour))
	require.NoError(t, err)

	// Both start untopiced, oldest first.
	unlabeled, err := database.ArticlesWithoutTopic(ctx, 0)
	require.NoError(t, err)
	require.Len(t, unlabeled, 2)
	assert.Equal(t, "First", unlabeled[0].Title)

	require.NoError(t, database.UpdateTopic(ctx, unlabeled[0].ID, "Models"))
	require.NoError(t, database.UpdateTopic(ctx, unlabeled[1].ID, "Safety"))

	unlabeled, err = database.ArticlesWithoutTopic(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, unlabeled)

	pending, err := database.PendingByTopic(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Models": 1, "Safety": 1}, pending)

	// Summaries land on both; the unsummarized query drains.
	unsummarized, err := database.UnsummarizedArticles(ctx, 0)
	require.NoError(t, err)
	require.Len(t, unsummarized, 2)
	for _, a := range unsummarized {
		require.NoError(t, database.UpdateAnalysis(ctx, a.ID, "summary of "+a.Title, "opinion"))
	}
	unsummarized, err = database.UnsummarizedArticles(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, unsummarized)

	// Topic-filtered pool.
	pool, err := database.UnsentArticles(ctx, "Models", false)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "First", pool[0].Title)
	assert.Equal(t, "summary of First", pool[0].Summary)
	assert.Equal(t, base, pool[0].FetchedAt)

	// Mark one sent; it leaves every unsent pool and pending count.
	sentAt := base.Add(2 * time.Hour)
	require.NoError(t, database.MarkSent(ctx, []int64{pool[0].ID}, sentAt))

	pool, err = database.UnsentArticles(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "Second", pool[0].Title)

	pending, err = database.PendingByTopic(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Safety": 1}, pending)
}

func TestUnsentArticlesOrderedByRecency(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := database.InsertArticleIfAbsent(ctx, item("https://example.com/old", "Old", "Alpha"), base)
	require.NoError(t, err)
	_, err = database.InsertArticleIfAbsent(ctx, item("https://example.com/new", "New", "Alpha"), base.Add(time.Hour))
	require.NoError(t, err)

	pool, err := database.UnsentArticles(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, "New", pool[0].Title)
	assert.Equal(t, "Old", pool[1].Title)
}

func TestDeleteArticlesOlderThan(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := database.InsertArticleIfAbsent(ctx, item("https://example.com/old", "Old", "Alpha"), base.AddDate(0, 0, -40))
	require.NoError(t, err)
	_, err = database.InsertArticleIfAbsent(ctx, item("https://example.com/new", "New", "Alpha"), base)
	require.NoError(t, err)

	cutoff := base.AddDate(0, 0, -30)

	count, err := database.CountArticlesOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	deleted, err := database.DeleteArticlesOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	total, err := database.CountArticles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSubscribers(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	sub, err := database.AddSubscriber(ctx, "  Reader@Example.COM ", true)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)
	assert.NotEmpty(t, sub.ConfirmToken)

	// Unconfirmed subscribers stay out of the active list.
	_, err = database.AddSubscriber(ctx, "pending@example.com", false)
	require.NoError(t, err)

	// Duplicate email is an error.
	_, err = database.AddSubscriber(ctx, "reader@example.com", true)
	assert.Error(t, err)

	active, err := database.ActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "reader@example.com", active[0].Email)
	assert.True(t, active[0].Confirmed)
	assert.False(t, active[0].SubscribedAt.IsZero())
}

func TestDigestLog(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, database.AppendDigestEntry(ctx, "Models", now.AddDate(0, 0, -10)))
	require.NoError(t, database.AppendDigestEntry(ctx, "Safety", now.AddDate(0, 0, -3)))
	require.NoError(t, database.AppendDigestEntry(ctx, "Safety", now.AddDate(0, 0, -1)))

	topics, err := database.TopicsSince(ctx, now.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Equal(t, []string{"Safety"}, topics)

	topics, err = database.TopicsSince(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Models", "Safety"}, topics)
}
