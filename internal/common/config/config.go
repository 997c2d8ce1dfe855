package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port int `env:"PORT" envDefault:"8080"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken      string `env:"BOT_TOKEN,required"`
		AdminID       int64  `env:"ADMIN_ID,required"`
		AdminUsername string `env:"ADMIN_USERNAME" envDefault:"@admin"`
		ChannelID     int64  `env:"CHANNEL_ID,required"`
		ChannelURL    string `env:"CHANNEL_URL" envDefault:""`
		// Sustained outbound message rate, messages per second.
		SendRate float64 `env:"TELEGRAM_SEND_RATE" envDefault:"10"`
	}

	Advisor struct {
		APIKey  string `env:"AI_API_KEY" envDefault:""`
		BaseURL string `env:"AI_BASE_URL" envDefault:"https://api.openai.com/v1/chat/completions"`
		Model   string `env:"AI_MODEL" envDefault:"gpt-4o"`
		// TimeoutSec bounds every advisor call; the fallback value is used
		// whenever the call fails or returns malformed content.
		TimeoutSec int `env:"AI_TIMEOUT_SEC" envDefault:"8"`
	}

	Tournament struct {
		MinEntryFee int    `env:"MIN_ENTRY_FEE" envDefault:"10"`
		MaxEntryFee int    `env:"MAX_ENTRY_FEE" envDefault:"500"`
		UPIID       string `env:"UPI_ID" envDefault:""`
		// Timezone is the fixed reference timezone for schedule parsing and
		// earnings period boundaries.
		Timezone string `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	}

	Notifications struct {
		Morning   string `env:"NOTIFY_MORNING" envDefault:"08:00"`
		Afternoon string `env:"NOTIFY_AFTERNOON" envDefault:"14:00"`
		Evening   string `env:"NOTIFY_EVENING" envDefault:"18:00"`
		Night     string `env:"NOTIFY_NIGHT" envDefault:"22:00"`
	}
}

// Load reads .env (when present) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Times returns the configured time-of-day broadcast marks keyed by period name.
func (c *Config) Times() map[string]string {
	return map[string]string{
		"morning":   c.Notifications.Morning,
		"afternoon": c.Notifications.Afternoon,
		"evening":   c.Notifications.Evening,
		"night":     c.Notifications.Night,
	}
}
