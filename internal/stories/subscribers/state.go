package subscribers

import "time"

// State is the silence state of a subscriber, re-derived from stored dates
// each day rather than held in memory. That keeps the state machine
// deterministic across restarts: two stored fields plus today's date fully
// determine it.
type State string

const (
	// StateActive: interacted recently enough to stay under the threshold.
	StateActive State = "active"
	// StateSilent: one or more consecutive days without interaction, still
	// below the escalation threshold.
	StateSilent State = "silent"
	// StateEscalated: threshold crossed and the admin already notified for
	// the current streak. Sticky until the next interaction.
	StateEscalated State = "escalated"
)

// SilentFor returns the number of consecutive calendar days the subscriber
// has been silent as of today. Days are counted in the location today is
// expressed in. A subscriber who never interacted is silent since the day
// they (re-)subscribed, so a brand-new user starts at zero and a returning
// user is not charged for time spent unsubscribed.
func (s *Subscriber) SilentFor(today time.Time) int {
	anchor := dateOnly(s.SubscribedAt.In(today.Location()))
	if s.LastInteractionDate != nil {
		// The stored value is already a calendar date; no location shift.
		last := dateOnly(*s.LastInteractionDate)
		if last.After(anchor) {
			anchor = last
		}
	}

	days := daysBetween(anchor, today)
	if days < 0 {
		return 0
	}
	return days
}

// DeriveState classifies the subscriber for a given day and threshold.
func (s *Subscriber) DeriveState(today time.Time, thresholdDays int) State {
	days := s.SilentFor(today)
	switch {
	case days >= thresholdDays && s.Escalated:
		return StateEscalated
	case days > 0:
		return StateSilent
	default:
		return StateActive
	}
}

// ShouldEscalate reports whether the sweep must fire the one-time escalation:
// the streak reached the threshold and the admin has not been notified yet.
func (s *Subscriber) ShouldEscalate(today time.Time, thresholdDays int) bool {
	return s.SilentFor(today) >= thresholdDays && !s.Escalated
}

// CivilDate truncates t to its calendar date, dropping the time of day and
// normalizing to UTC so dates from different sources compare cleanly.
func CivilDate(t time.Time) time.Time {
	return dateOnly(t)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}
