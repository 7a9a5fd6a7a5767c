package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"newsy/models"
)

// ActiveSubscribers returns everyone who confirmed and has not
// unsubscribed. Signup, confirmation and unsubscription themselves
// happen outside this system; the store only reads the result.
func (d *DB) ActiveSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "email", "confirm_token", "confirmed", "subscribed_at", "unsubscribed_at").
		From("subscribers")
	sb.Where(sb.Equal("confirmed", 1))
	sb.Where(sb.IsNull("unsubscribed_at"))
	sb.OrderBy("id").Asc()

	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := d.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// AddSubscriber inserts a subscriber with a fresh confirm token.
// Duplicate emails are an error. Admin-side adds pass confirmed=true;
// the external signup flow would insert unconfirmed rows instead.
func (d *DB) AddSubscriber(ctx context.Context, email string, confirmed bool) (models.Subscriber, error) {
	sub := models.Subscriber{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		ConfirmToken: uuid.NewString(),
		Confirmed:    confirmed,
		SubscribedAt: time.Now().UTC(),
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("subscribers").
		Cols("email", "confirm_token", "confirmed", "subscribed_at").
		Values(sub.Email, sub.ConfirmToken, boolToInt(sub.Confirmed), formatTime(sub.SubscribedAt))
	sql, args := ib.Build()

	res, err := d.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("last insert id: %w", err)
	}
	return sub, nil
}

func scanSubscriber(rows *sql.Rows) (models.Subscriber, error) {
	var (
		s              models.Subscriber
		confirmed      int
		subscribedAt   string
		unsubscribedAt sql.NullString
	)
	if err := rows.Scan(&s.ID, &s.Email, &s.ConfirmToken, &confirmed, &subscribedAt, &unsubscribedAt); err != nil {
		return models.Subscriber{}, err
	}
	s.Confirmed = confirmed != 0
	s.SubscribedAt = parseTime(subscribedAt)
	if unsubscribedAt.Valid {
		t := parseTime(unsubscribedAt.String)
		s.UnsubscribedAt = &t
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
