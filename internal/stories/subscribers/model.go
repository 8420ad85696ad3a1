package subscribers

import "time"

// Subscriber is one journaling user. LastInteractionDate holds a calendar
// date (zero time-of-day) in the bot's configured timezone; nil means the
// subscriber has never replied since signing up.
type Subscriber struct {
	ID                  int64
	TelegramID          int64
	Subscribed          bool
	SubscribedAt        time.Time
	LastInteractionDate *time.Time
	SilentDays          int
	Escalated           bool
	LastReminderAt      *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type GetCriteria struct {
	ID         *int64
	TelegramID *int64
}

type ListCriteria struct {
	Subscribed *bool
	Limit      int
	Offset     int
}

type UpdateParams struct {
	Subscribed   *bool
	SubscribedAt *time.Time
	SilentDays   *int
	Escalated    *bool
}

// SweepResult is the outcome of one inactivity sweep for one subscriber. Seen
// carries the last interaction date observed when the sweep read the record;
// the store applies the result only if that date is still current, so an
// interaction that lands mid-sweep is never overwritten.
type SweepResult struct {
	TelegramID int64
	Seen       *time.Time
	SilentDays int
	Escalated  bool
}

// Stats is the aggregate view shown by the admin /stats command.
type Stats struct {
	Total      int64
	Subscribed int64
	Silent     int64
	Escalated  int64
}
