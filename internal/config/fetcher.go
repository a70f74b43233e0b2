package config

import "time"

type Fetcher struct {
	BaseURL   string        `env:"FETCHER_BASE_URL" envDefault:"https://www.amazon.com"`
	Timeout   time.Duration `env:"FETCHER_TIMEOUT" envDefault:"15s"`
	UserAgent string        `env:"FETCHER_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
}
