package cmds

import (
	"context"
	"fmt"
	"time"

	"valen-bot/internal/stories/subscribers"
)

// StatusCommand answers /status with the caller's own silence state.
type StatusCommand struct {
	bot           botApi
	subscribers   subscriberGetter
	localizer     localizer
	loc           *time.Location
	thresholdDays int
	now           func() time.Time
}

type subscriberGetter interface {
	Get(ctx context.Context, telegramID int64) (*subscribers.Subscriber, error)
}

func NewStatusCommand(bot botApi, subs subscriberGetter, localizer localizer, loc *time.Location, thresholdDays int) *StatusCommand {
	return &StatusCommand{
		bot:           bot,
		subscribers:   subs,
		localizer:     localizer,
		loc:           loc,
		thresholdDays: thresholdDays,
		now:           time.Now,
	}
}

func (c *StatusCommand) Execute(ctx context.Context, telegramID, chatID int64) error {
	sub, err := c.subscribers.Get(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get subscriber: %w", err)
	}

	text := c.formatStatus(sub)
	return c.bot.SendMessage(chatID, text)
}

func (c *StatusCommand) formatStatus(sub *subscribers.Subscriber) string {
	if sub == nil || !sub.Subscribed {
		return c.localizer.Get(defaultLang, "status.not_subscribed", nil)
	}

	today := c.now().In(c.loc)
	days := sub.SilentFor(today)
	params := map[string]interface{}{"days": days}

	switch sub.DeriveState(today, c.thresholdDays) {
	case subscribers.StateEscalated:
		return c.localizer.Get(defaultLang, "status.escalated", params)
	case subscribers.StateSilent:
		return c.localizer.Get(defaultLang, "status.silent", params)
	default:
		return c.localizer.Get(defaultLang, "status.active", nil)
	}
}
