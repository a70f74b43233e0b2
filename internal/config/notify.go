package config

type Notify struct {
	// Recipient receives the price drop alert emails.
	Recipient string `env:"NOTIFY_RECIPIENT,required"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST,required"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME,required"`
	Password string `env:"SMTP_PASSWORD,required"`
	From     string `env:"SMTP_FROM,required"`
	FromName string `env:"SMTP_FROM_NAME" envDefault:"Price Tracker"`
}
