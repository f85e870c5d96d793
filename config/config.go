package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Selenium    Selenium
	Brokers     Brokers
	Waits       Waits
	GoogleDrive GoogleDrive
}

type Selenium struct {
	Browser     string `env:"BROWSER" envDefault:"chrome"`
	DriverPath  string `env:"CHROMEDRIVER_PATH" envDefault:"chromedriver"`
	DriverPort  int    `env:"CHROMEDRIVER_PORT" envDefault:"9515"`
	BrowserPath string `env:"CHROME_BINARY_PATH" envDefault:""`
	Headless    bool   `env:"HEADLESS" envDefault:"false"`
	DisableJS   bool   `env:"DISABLE_JAVASCRIPT" envDefault:"false"`
	Locale      string `env:"BROWSER_LOCALE" envDefault:"en-US"`
}

type Brokers struct {
	ScalableLogin      string `env:"SC_LOGIN" envDefault:""`
	ScalablePassword   string `env:"SC_PASSWORD" envDefault:""`
	TradeRepublicPhone string `env:"TR_PHONE" envDefault:""`
	TradeRepublicPin   string `env:"TR_PIN" envDefault:""`
}

type Waits struct {
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	SettleDelay   time.Duration `env:"PAGE_SETTLE_DELAY" envDefault:"5s"`
	DetailTimeout time.Duration `env:"DETAIL_WAIT_TIMEOUT" envDefault:"10s"`
	LoginTimeout  time.Duration `env:"LOGIN_WAIT_TIMEOUT" envDefault:"90s"`
}

type GoogleDrive struct {
	CredentialsFile string `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
