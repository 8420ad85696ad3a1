package subscribers

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestSilentFor(t *testing.T) {
	cairo, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		sub  Subscriber
		now  time.Time
		want int
	}{
		{
			name: "interacted today",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 10),
			},
			now:  time.Date(2024, 3, 10, 15, 0, 0, 0, cairo),
			want: 0,
		},
		{
			name: "three days silent",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 7),
			},
			now:  time.Date(2024, 3, 10, 9, 0, 0, 0, cairo),
			want: 3,
		},
		{
			name: "never interacted counts from subscription",
			sub: Subscriber{
				SubscribedAt: time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC),
			},
			now:  time.Date(2024, 3, 10, 9, 0, 0, 0, cairo),
			want: 2,
		},
		{
			name: "resubscribed after stale interaction counts from resubscription",
			sub: Subscriber{
				SubscribedAt:        time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC),
				LastInteractionDate: datePtr(2024, 1, 1),
			},
			now:  time.Date(2024, 3, 10, 9, 0, 0, 0, cairo),
			want: 1,
		},
		{
			name: "interaction after midnight counts as a new day",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 10),
			},
			// 00:05 local on the 10th: the stored date is already
			// today, so no silence.
			now:  time.Date(2024, 3, 10, 0, 5, 0, 0, cairo),
			want: 0,
		},
		{
			name: "future date clamps to zero",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 11),
			},
			now:  time.Date(2024, 3, 10, 9, 0, 0, 0, cairo),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sub.SilentFor(tt.now)
			if got != tt.want {
				t.Errorf("SilentFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDeriveState(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	const threshold = 3

	tests := []struct {
		name string
		sub  Subscriber
		want State
	}{
		{
			name: "interacted today is active",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 10),
			},
			want: StateActive,
		},
		{
			name: "one silent day",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 9),
			},
			want: StateSilent,
		},
		{
			name: "at threshold but not yet escalated is still silent",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 7),
			},
			want: StateSilent,
		},
		{
			name: "escalated is sticky while silence continues",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 5),
				Escalated:           true,
			},
			want: StateEscalated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sub.DeriveState(now, threshold)
			if got != tt.want {
				t.Errorf("DeriveState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldEscalate(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	const threshold = 3

	tests := []struct {
		name string
		sub  Subscriber
		want bool
	}{
		{
			name: "below threshold",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 8),
			},
			want: false,
		},
		{
			name: "at threshold fires",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 7),
			},
			want: true,
		},
		{
			name: "already escalated does not re-fire",
			sub: Subscriber{
				SubscribedAt:        date(2024, 3, 1),
				LastInteractionDate: datePtr(2024, 3, 7),
				Escalated:           true,
			},
			want: false,
		},
		{
			name: "never interacted escalates after threshold days subscribed",
			sub: Subscriber{
				SubscribedAt: date(2024, 3, 7),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sub.ShouldEscalate(now, threshold)
			if got != tt.want {
				t.Errorf("ShouldEscalate() = %v, want %v", got, tt.want)
			}
		})
	}
}
