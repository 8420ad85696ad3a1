package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"valen-bot/internal/stories/subscribers"
)

const subscribersTable = "subscribers"

// dateLayout is how calendar dates are stored: ISO date, no time component.
const dateLayout = "2006-01-02"

var subscriberRowFields = fields(subscriberRow{})

type subscriberRow struct {
	ID                  int64          `db:"id"`
	TelegramID          int64          `db:"telegram_id"`
	Subscribed          bool           `db:"subscribed"`
	SubscribedAt        time.Time      `db:"subscribed_at"`
	LastInteractionDate sql.NullString `db:"last_interaction_date"`
	SilentDays          int            `db:"silent_days"`
	Escalated           bool           `db:"escalated"`
	LastReminderAt      sql.NullTime   `db:"last_reminder_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (r subscriberRow) ToModel() (*subscribers.Subscriber, error) {
	sub := &subscribers.Subscriber{
		ID:           r.ID,
		TelegramID:   r.TelegramID,
		Subscribed:   r.Subscribed,
		SubscribedAt: r.SubscribedAt,
		SilentDays:   r.SilentDays,
		Escalated:    r.Escalated,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}

	if r.LastInteractionDate.Valid {
		d, err := time.Parse(dateLayout, r.LastInteractionDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_interaction_date %q: %w", r.LastInteractionDate.String, err)
		}
		sub.LastInteractionDate = &d
	}
	if r.LastReminderAt.Valid {
		t := r.LastReminderAt.Time
		sub.LastReminderAt = &t
	}

	return sub, nil
}

func (r *subscriberRow) scan(row sq.RowScanner) error {
	return row.Scan(
		&r.ID,
		&r.TelegramID,
		&r.Subscribed,
		&r.SubscribedAt,
		&r.LastInteractionDate,
		&r.SilentDays,
		&r.Escalated,
		&r.LastReminderAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

func (s *storageImpl) CreateSubscriber(ctx context.Context, sub subscribers.Subscriber) (*subscribers.Subscriber, error) {
	subscribedAt := sub.SubscribedAt
	if subscribedAt.IsZero() {
		subscribedAt = s.now()
	}

	params := map[string]interface{}{
		"telegram_id":   sub.TelegramID,
		"subscribed":    sub.Subscribed,
		"subscribed_at": subscribedAt,
		"silent_days":   0,
		"escalated":     false,
		"created_at":    s.now(),
		"updated_at":    s.now(),
	}

	q, args, err := s.stmpBuilder().
		Insert(subscribersTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return s.GetSubscriber(ctx, subscribers.GetCriteria{ID: &id})
}

func (s *storageImpl) GetSubscriber(ctx context.Context, criteria subscribers.GetCriteria) (*subscribers.Subscriber, error) {
	query := s.stmpBuilder().
		Select(subscriberRowFields).
		From(subscribersTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.TelegramID != nil {
		query = query.Where(sq.Eq{"telegram_id": *criteria.TelegramID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var r subscriberRow
	err = r.scan(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return r.ToModel()
}

func (s *storageImpl) UpdateSubscriber(ctx context.Context, criteria subscribers.GetCriteria, params subscribers.UpdateParams) (*subscribers.Subscriber, error) {
	query := s.stmpBuilder().
		Update(subscribersTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.TelegramID != nil {
		query = query.Where(sq.Eq{"telegram_id": *criteria.TelegramID})
	}

	if params.Subscribed != nil {
		query = query.Set("subscribed", *params.Subscribed)
	}
	if params.SubscribedAt != nil {
		query = query.Set("subscribed_at", *params.SubscribedAt)
	}
	if params.SilentDays != nil {
		query = query.Set("silent_days", *params.SilentDays)
	}
	if params.Escalated != nil {
		query = query.Set("escalated", *params.Escalated)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetSubscriber(ctx, criteria)
}

func (s *storageImpl) ListSubscribers(ctx context.Context, criteria subscribers.ListCriteria) ([]*subscribers.Subscriber, error) {
	query := s.stmpBuilder().
		Select(subscriberRowFields).
		From(subscribersTable)

	if criteria.Subscribed != nil {
		query = query.Where(sq.Eq{"subscribed": *criteria.Subscribed})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("created_at ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.QueryContext: %w", err)
	}
	defer rows.Close()

	var result []*subscribers.Subscriber
	for rows.Next() {
		var r subscriberRow
		if err := r.scan(rows); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		sub, err := r.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return result, nil
}

// RecordInteraction advances last_interaction_date and clears the silence
// state in one guarded statement. The guard makes the write idempotent and
// monotonic: an earlier date never overwrites a later one, and concurrent
// triggers cannot double-apply. Works for unsubscribed records too, so the
// history is current if the user ever comes back.
func (s *storageImpl) RecordInteraction(ctx context.Context, telegramID int64, date time.Time) (bool, error) {
	day := date.Format(dateLayout)

	q, args, err := s.stmpBuilder().
		Update(subscribersTable).
		Set("last_interaction_date", day).
		Set("silent_days", 0).
		Set("escalated", false).
		Set("updated_at", s.now()).
		Where(sq.Eq{"telegram_id": telegramID}).
		Where(sq.Or{
			sq.Eq{"last_interaction_date": nil},
			sq.LtOrEq{"last_interaction_date": day},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("result.RowsAffected: %w", err)
	}

	return affected > 0, nil
}

// ApplySweepResult persists the outcome of one inactivity sweep for one
// subscriber. The write only lands if the record is still subscribed and the
// last interaction date the sweep saw is still current; an interaction that
// arrived mid-sweep wins and the sweep result is discarded.
func (s *storageImpl) ApplySweepResult(ctx context.Context, r subscribers.SweepResult) (bool, error) {
	query := s.stmpBuilder().
		Update(subscribersTable).
		Set("silent_days", r.SilentDays).
		Set("escalated", r.Escalated).
		Set("updated_at", s.now()).
		Where(sq.Eq{"telegram_id": r.TelegramID}).
		Where(sq.Eq{"subscribed": true})

	if r.Seen != nil {
		query = query.Where(sq.Eq{"last_interaction_date": r.Seen.Format(dateLayout)})
	} else {
		query = query.Where(sq.Eq{"last_interaction_date": nil})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("result.RowsAffected: %w", err)
	}

	return affected > 0, nil
}

// MarkReminderSent records a confirmed reminder delivery. Called only after
// the gateway reported success, so a failed send leaves the bookkeeping
// untouched and the next slot retries naturally.
func (s *storageImpl) MarkReminderSent(ctx context.Context, telegramID int64, at time.Time) error {
	q, args, err := s.stmpBuilder().
		Update(subscribersTable).
		Set("last_reminder_at", at).
		Set("updated_at", s.now()).
		Where(sq.Eq{"telegram_id": telegramID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}

	return nil
}

// GetStats aggregates counters for the admin /stats command.
func (s *storageImpl) GetStats(ctx context.Context) (*subscribers.Stats, error) {
	var stats subscribers.Stats

	counts := []struct {
		dst   *int64
		where sq.Sqlizer
	}{
		{&stats.Total, nil},
		{&stats.Subscribed, sq.Eq{"subscribed": true}},
		{&stats.Silent, sq.And{sq.Eq{"subscribed": true}, sq.Gt{"silent_days": 0}}},
		{&stats.Escalated, sq.And{sq.Eq{"subscribed": true}, sq.Eq{"escalated": true}}},
	}

	for _, c := range counts {
		query := s.stmpBuilder().
			Select("COUNT(*)").
			From(subscribersTable)
		if c.where != nil {
			query = query.Where(c.where)
		}

		q, args, err := query.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build sql query: %w", err)
		}

		if err := s.db.QueryRowContext(ctx, q, args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("row.Scan: %w", err)
		}
	}

	return &stats, nil
}
