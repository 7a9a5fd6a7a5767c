package db

import (
	"context"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// AppendDigestEntry records that a digest using the given topic was
// sent. The log is append-only; nothing in this system mutates or
// deletes it.
func (d *DB) AppendDigestEntry(ctx context.Context, topic string, sentAt time.Time) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("digest_log").
		Cols("topic", "sent_at").
		Values(topic, formatTime(sentAt))
	sql, args := ib.Build()

	_, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("append digest entry: %w", err)
	}
	return nil
}

// TopicsSince returns the distinct topics of digests sent at or after
// the cutoff. Used to compute the rotation cooldown window.
func (d *DB) TopicsSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("DISTINCT topic").From("digest_log")
	sb.Where(sb.GreaterEqualThan("sent_at", formatTime(cutoff)))

	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := d.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}
