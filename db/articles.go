package db

import (
	"context"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"newsy/models"
)

var articleColumns = []string{
	"id", "url", "title", "source", "content",
	"summary", "opinion", "image_url", "topic", "fetched_at", "sent_at",
}

// InsertArticleIfAbsent stores a candidate unless its URL already
// exists. Returns true when a new row was written; a duplicate URL is a
// no-op, not an error.
func (d *DB) InsertArticleIfAbsent(ctx context.Context, item models.CandidateItem, fetchedAt time.Time) (bool, error) {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertIgnoreInto("articles").
		Cols("url", "title", "source", "content", "fetched_at").
		Values(item.URL, item.Title, item.Source, item.Content, formatTime(fetchedAt))
	sql, args := ib.Build()

	res, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (d *DB) queryArticles(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]models.Article, error) {
	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := d.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// UnsentArticles returns the digest selection pool: articles never sent,
// optionally restricted to one topic and/or to summarized articles.
func (d *DB) UnsentArticles(ctx context.Context, topic string, summarizedOnly bool) ([]models.Article, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(articleColumns...).From("articles")
	sb.Where(sb.IsNull("sent_at"))
	if topic != "" {
		sb.Where(sb.Equal("topic", topic))
	}
	if summarizedOnly {
		sb.Where(sb.IsNotNull("summary"))
	}
	sb.OrderBy("fetched_at").Desc()

	return d.queryArticles(ctx, sb)
}

// ArticlesWithoutTopic returns unlabeled articles, oldest first so a
// bounded classification run drains the backlog in ingestion order.
func (d *DB) ArticlesWithoutTopic(ctx context.Context, limit int) ([]models.Article, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(articleColumns...).From("articles")
	sb.Where(sb.IsNull("topic"))
	sb.OrderBy("fetched_at").Asc()
	if limit > 0 {
		sb.Limit(limit)
	}

	return d.queryArticles(ctx, sb)
}

// UnsummarizedArticles returns articles still lacking a summary.
func (d *DB) UnsummarizedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(articleColumns...).From("articles")
	sb.Where(sb.IsNull("summary"))
	sb.OrderBy("fetched_at").Asc()
	if limit > 0 {
		sb.Limit(limit)
	}

	return d.queryArticles(ctx, sb)
}

// PendingByTopic counts unsent articles per topic label.
func (d *DB) PendingByTopic(ctx context.Context) (map[string]int, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("topic", "count(*)").From("articles")
	sb.Where(sb.IsNull("sent_at"))
	sb.Where(sb.IsNotNull("topic"))
	sb.GroupBy("topic")

	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := d.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var topic string
		var count int
		if err := rows.Scan(&topic, &count); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		counts[topic] = count
	}
	return counts, rows.Err()
}

// UpdateTopic labels one article. Topics are assigned once at ingestion
// time and never rewritten afterwards.
func (d *DB) UpdateTopic(ctx context.Context, id int64, topic string) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("articles").Set(ub.Assign("topic", topic)).Where(ub.Equal("id", id))
	sql, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return nil
}

// UpdateAnalysis stores the generated summary and opinion for one article.
func (d *DB) UpdateAnalysis(ctx context.Context, id int64, summary, opinion string) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("articles").
		Set(ub.Assign("summary", summary), ub.Assign("opinion", opinion)).
		Where(ub.Equal("id", id))
	sql, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	return nil
}

// MarkSent stamps sent_at on every given article in one statement.
func (d *DB) MarkSent(ctx context.Context, ids []int64, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("articles").
		Set(ub.Assign("sent_at", formatTime(sentAt))).
		Where(ub.In("id", lo.ToAnySlice(ids)...))
	sql, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// DeleteArticlesOlderThan removes articles fetched before the cutoff and
// returns how many were deleted.
func (d *DB) DeleteArticlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	del := sqlbuilder.NewDeleteBuilder()
	del.DeleteFrom("articles").Where(del.LessThan("fetched_at", formatTime(cutoff)))
	sql, args := del.BuildWithFlavor(sqlbuilder.SQLite)

	log.WithFields(log.Fields{
		"cutoff": formatTime(cutoff),
	}).Info("Deleting old articles")

	res, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	return res.RowsAffected()
}

// CountArticlesOlderThan reports how many articles a cleanup with the
// same cutoff would delete.
func (d *DB) CountArticlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("count(*)").From("articles")
	sb.Where(sb.LessThan("fetched_at", formatTime(cutoff)))
	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var count int64
	if err := d.db.QueryRowContext(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// CountArticles returns the total number of stored articles.
func (d *DB) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, "SELECT count(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}
