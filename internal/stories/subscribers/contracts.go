package subscribers

import (
	"context"
	"time"
)

type (
	Storage interface {
		CreateSubscriber(ctx context.Context, sub Subscriber) (*Subscriber, error)
		GetSubscriber(ctx context.Context, criteria GetCriteria) (*Subscriber, error)
		UpdateSubscriber(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Subscriber, error)
		ListSubscribers(ctx context.Context, criteria ListCriteria) ([]*Subscriber, error)
		// RecordInteraction atomically advances last_interaction_date to
		// date (a calendar date) and clears the silence state. It never
		// moves the date backwards. Returns false for unknown subscribers.
		RecordInteraction(ctx context.Context, telegramID int64, date time.Time) (bool, error)
	}
)
