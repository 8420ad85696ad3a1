package subscribers

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// Service provides business logic for subscriber lifecycle and interaction
// tracking.
type Service struct {
	storage Storage
	loc     *time.Location
	now     func() time.Time
}

func NewService(storage Storage, loc *time.Location, now func() time.Time) *Service {
	return &Service{
		storage: storage,
		loc:     loc,
		now:     now,
	}
}

// Subscribe creates a subscriber on first /start or reactivates an existing
// one. Reactivation stamps SubscribedAt and clears the silence state, so a
// returning user is measured from the day they came back rather than being
// escalated off stale history.
func (s *Service) Subscribe(ctx context.Context, telegramID int64) (*Subscriber, bool, error) {
	existing, err := s.storage.GetSubscriber(ctx, GetCriteria{TelegramID: &telegramID})
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		created, err := s.storage.CreateSubscriber(ctx, Subscriber{
			TelegramID:   telegramID,
			Subscribed:   true,
			SubscribedAt: s.now(),
		})
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	}

	updated, err := s.storage.UpdateSubscriber(ctx, GetCriteria{TelegramID: &telegramID}, UpdateParams{
		Subscribed:   lo.ToPtr(true),
		SubscribedAt: lo.ToPtr(s.now()),
		SilentDays:   lo.ToPtr(0),
		Escalated:    lo.ToPtr(false),
	})
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// Unsubscribe soft-deletes: the record and its history stay, only the
// subscribed flag drops. No further sends of any kind happen until /start.
func (s *Service) Unsubscribe(ctx context.Context, telegramID int64) error {
	existing, err := s.storage.GetSubscriber(ctx, GetCriteria{TelegramID: &telegramID})
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	_, err = s.storage.UpdateSubscriber(ctx, GetCriteria{TelegramID: &telegramID}, UpdateParams{
		Subscribed: lo.ToPtr(false),
	})
	return err
}

// RecordInteraction buckets the interaction instant into a calendar date in
// the bot's timezone and records it. Idempotent: repeated or out-of-order
// calls never move the stored date backwards. Interactions from unknown
// senders are ignored.
func (s *Service) RecordInteraction(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	date := CivilDate(at.In(s.loc))
	return s.storage.RecordInteraction(ctx, telegramID, date)
}

// Get returns the subscriber for a Telegram ID, or nil when unknown.
func (s *Service) Get(ctx context.Context, telegramID int64) (*Subscriber, error) {
	return s.storage.GetSubscriber(ctx, GetCriteria{TelegramID: &telegramID})
}

// ListSubscribed returns everyone who currently receives sends.
func (s *Service) ListSubscribed(ctx context.Context) ([]*Subscriber, error) {
	return s.storage.ListSubscribers(ctx, ListCriteria{Subscribed: lo.ToPtr(true)})
}
