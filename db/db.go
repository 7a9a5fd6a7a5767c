package db

import (
	"database/sql"
	"time"

	"newsy/models"
)

// Timestamps are stored as RFC3339 UTC strings so that lexicographic
// and chronological order coincide.
const timeLayout = time.RFC3339

// DB is the SQLite-backed store for articles, subscribers and the
// digest log.
type DB struct {
	db *sql.DB
}

// New opens the database at path. The schema must already be migrated.
func New(path string) (*DB, error) {
	conn, err := connection(path)
	if err != nil {
		return nil, err
	}
	return &DB{db: conn}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// scanArticle reads one row in articleColumns order.
func scanArticle(rows *sql.Rows) (models.Article, error) {
	var (
		a                               models.Article
		summary, opinion, image, topic  sql.NullString
		fetchedAt                       string
		sentAt                          sql.NullString
	)
	if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Source, &a.Content,
		&summary, &opinion, &image, &topic, &fetchedAt, &sentAt); err != nil {
		return models.Article{}, err
	}
	a.Summary = summary.String
	a.Opinion = opinion.String
	a.ImageURL = image.String
	a.Topic = topic.String
	a.FetchedAt = parseTime(fetchedAt)
	if sentAt.Valid {
		t := parseTime(sentAt.String)
		a.SentAt = &t
	}
	return a, nil
}
