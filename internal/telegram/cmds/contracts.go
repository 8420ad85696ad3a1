package cmds

const defaultLang = "en"

type (
	botApi interface {
		SendMessage(chatID int64, text string) error
	}

	localizer interface {
		Get(lang, key string, params map[string]interface{}) string
	}
)
