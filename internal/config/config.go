package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// DBDriver is mysql or postgres.
	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. host, tcp(host:3306), unix(/cloudsql/instance) or a socket path
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	// DatabaseURL, when set, is used verbatim and wins over the DB_* fields.
	DatabaseURL string `env:"DATABASE_URL"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	CredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	ImageBucket       string `env:"IMAGE_BUCKET"`

	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	PaymentMerchantID string `env:"PAYMENT_MERCHANT_ID"`
	PaymentPassphrase string `env:"PAYMENT_PASSPHRASE,required,notEmpty"`
	// PaymentSyncSettle lets the browser return path settle before the
	// gateway notification arrives. That path is not signed, so it stays off
	// unless a deployment opts in.
	PaymentSyncSettle bool `env:"PAYMENT_SYNC_SETTLE" envDefault:"false"`

	CORSAllowedSuffixes []string `env:"CORS_ALLOWED_SUFFIXES" envSeparator:"," envDefault:"vercel.app"`

	GitSHA    string `env:"GIT_SHA"`
	BuildTime string `env:"BUILD_TIME"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL != "" {
		return nil
	}
	if c.DBUser == "" || c.DBName == "" {
		return fmt.Errorf("config: DB_USER and DB_NAME are required without DATABASE_URL")
	}
	if c.DBHost == "" && c.InstanceConnectionName == "" {
		return fmt.Errorf("config: DB_HOST or INSTANCE_CONNECTION_NAME is required")
	}
	return nil
}
