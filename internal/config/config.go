package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	EdhtopBaseURL string        `env:"EDHTOP_BASE_URL,default=https://edhtop16.com/api"`
	EdhtopTimeout time.Duration `env:"EDHTOP_TIMEOUT,default=30s"`

	ScryfallBaseURL string        `env:"SCRYFALL_BASE_URL,default=https://api.scryfall.com"`
	ScryfallTimeout time.Duration `env:"SCRYFALL_TIMEOUT,default=30s"`
	ScryfallRPS     float64       `env:"SCRYFALL_RPS,default=10"`

	ScrapeTopN       int           `env:"SCRAPE_TOP_N,default=100"`
	ScrapeMaxRetries int           `env:"SCRAPE_MAX_RETRIES,default=3"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY,default=1s"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY,default=30s"`

	PriceBatchSize       int           `env:"PRICE_BATCH_SIZE,default=50"`
	PriceBatchDelay      time.Duration `env:"PRICE_BATCH_DELAY,default=100ms"`
	PriceMaxRetries      int           `env:"PRICE_MAX_RETRIES,default=5"`
	PriceAlertThreshold  float64       `env:"PRICE_ALERT_THRESHOLD_PCT,default=20"`
	PriceHistoryPageSize int           `env:"PRICE_HISTORY_PAGE_SIZE,default=90"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
