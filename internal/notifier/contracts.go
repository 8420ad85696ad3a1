package notifier

type (
	// TelegramBot is the delivery gateway. A returned error means the
	// message was not confirmed delivered.
	TelegramBot interface {
		SendMessage(chatID int64, text string) error
	}

	// Localizer resolves message texts from the embedded catalog.
	Localizer interface {
		Get(lang, key string, params map[string]interface{}) string
	}
)
