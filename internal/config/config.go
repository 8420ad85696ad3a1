package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	Reminders        RemindersConfig         `env:",prefix=REMINDERS_"`
}

type TelegramConfig struct {
	BotToken string        `env:"BOT_TOKEN,required"`
	Timeout  time.Duration `env:"TIMEOUT,default=30s"`
	AdminIDs []int64       `env:"ADMIN_IDS"`
}

// RemindersConfig is the whole scheduling surface of the bot. It is read once
// at startup; there is no per-subscriber customization.
type RemindersConfig struct {
	FirstHour            int    `env:"FIRST_HOUR,default=10"`
	SecondHour           int    `env:"SECOND_HOUR,default=22"`
	SweepHour            int    `env:"SWEEP_HOUR,default=9"`
	Timezone             string `env:"TIMEZONE,default=Africa/Cairo"`
	SilenceThresholdDays int    `env:"SILENCE_THRESHOLD_DAYS,default=3"`
}

func (c RemindersConfig) Validate() error {
	for _, h := range []int{c.FirstHour, c.SecondHour, c.SweepHour} {
		if h < 0 || h > 23 {
			return fmt.Errorf("schedule hour %d out of range 0-23", h)
		}
	}
	if c.SilenceThresholdDays < 1 {
		return fmt.Errorf("silence threshold must be at least 1 day, got %d", c.SilenceThresholdDays)
	}
	return nil
}

// Location resolves the configured IANA timezone. All day boundaries in the
// bot are calendar dates in this location.
func (c RemindersConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/valen.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=1"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=1"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
