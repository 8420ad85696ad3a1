package cmds

import (
	"context"
	"fmt"

	"valen-bot/internal/stories/subscribers"
)

// StatsCommand answers the admin-only /stats with subscriber counters.
type StatsCommand struct {
	bot       botApi
	storage   StatsStorage
	localizer localizer
}

type StatsStorage interface {
	GetStats(ctx context.Context) (*subscribers.Stats, error)
}

func NewStatsCommand(bot botApi, storage StatsStorage, localizer localizer) *StatsCommand {
	return &StatsCommand{
		bot:       bot,
		storage:   storage,
		localizer: localizer,
	}
}

func (c *StatsCommand) Execute(ctx context.Context, chatID int64) error {
	stats, err := c.storage.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	text := c.localizer.Get(defaultLang, "admin.stats", map[string]interface{}{
		"total":      stats.Total,
		"subscribed": stats.Subscribed,
		"silent":     stats.Silent,
		"escalated":  stats.Escalated,
	})

	return c.bot.SendMessage(chatID, text)
}
