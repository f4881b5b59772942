package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Rental       RentalConfig
	Cron         CronConfig
	Bank         BankConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
}

// Load reads the environment and reports every invalid setting at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	errs := []error{
		c.DB.ensureDSN(c.FeatureFlags.UseSQLite),
		c.Bank.validate(),
		c.Rental.validate(),
		c.Cron.validate(),
	}
	if c.Redis.URL == "" && c.Redis.Address == "" {
		errs = append(errs, fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr))
	}
	if c.App.IsProd() && c.Bank.IsSandbox() {
		errs = append(errs, fmt.Errorf("%s=%s is not allowed in %s", EnvBankMode, BankModeSandbox, AppEnvProd))
	}
	return errors.Join(errs...)
}

type AppConfig struct {
	Env          string `envconfig:"LOCKERLEND_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCKERLEND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCKERLEND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCKERLEND_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"LOCKERLEND_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOCKERLEND_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOCKERLEND_DB_DSN"`
	Driver string `envconfig:"LOCKERLEND_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCKERLEND_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCKERLEND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCKERLEND_DB_USER"`
	LegacyPassword string `envconfig:"LOCKERLEND_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCKERLEND_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCKERLEND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCKERLEND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCKERLEND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCKERLEND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCKERLEND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"LOCKERLEND_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCKERLEND_REDIS_URL"`
	Address      string        `envconfig:"LOCKERLEND_REDIS_ADDR"`
	Password     string        `envconfig:"LOCKERLEND_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCKERLEND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCKERLEND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCKERLEND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCKERLEND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCKERLEND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCKERLEND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds what is needed to verify access tokens minted by the identity service.
type JWTConfig struct {
	Secret string        `envconfig:"LOCKERLEND_JWT_SECRET" required:"true"`
	Issuer string        `envconfig:"LOCKERLEND_JWT_ISSUER" required:"true"`
	Leeway time.Duration `envconfig:"LOCKERLEND_JWT_LEEWAY" default:"30s"`
}

// FeatureFlagsConfig toggles local-development conveniences.
type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOCKERLEND_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOCKERLEND_AUTO_MIGRATE" default:"false"`
}

// RentalConfig tunes fees and scheduler sweeps for the rental lifecycle.
type RentalConfig struct {
	LockerFeeRenter  int64 `envconfig:"LOCKERLEND_LOCKER_FEE_RENTER" default:"500"`
	LockerFeeOwner   int64 `envconfig:"LOCKERLEND_LOCKER_FEE_OWNER" default:"500"`
	SweepBatchSize   int   `envconfig:"LOCKERLEND_SWEEP_BATCH_SIZE" default:"100"`
	SweepMaxRentals  int   `envconfig:"LOCKERLEND_SWEEP_MAX_RENTALS" default:"5000"`
	ReminderLeadDays int   `envconfig:"LOCKERLEND_REMINDER_LEAD_DAYS" default:"3"`
}

func (r RentalConfig) validate() error {
	if r.LockerFeeRenter < 0 || r.LockerFeeOwner < 0 {
		return errors.New("locker fees must not be negative")
	}
	if r.ReminderLeadDays < 0 {
		return errors.New("reminder lead days must not be negative")
	}
	return nil
}

// CronConfig paces the cron worker. The lock must lapse before the next tick
// so a crashed worker does not also cost the following cycle.
type CronConfig struct {
	Interval time.Duration `envconfig:"LOCKERLEND_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"LOCKERLEND_CRON_LOCK_TTL" default:"23h"`
}

func (c CronConfig) validate() error {
	if c.Interval > 0 && c.LockTTL >= c.Interval {
		return fmt.Errorf("cron lock ttl %s must be shorter than the interval %s", c.LockTTL, c.Interval)
	}
	return nil
}

// BankConfig configures the external settlement collaborator.
type BankConfig struct {
	Mode             string        `envconfig:"LOCKERLEND_BANK_MODE" default:"sandbox"`
	BaseURL          string        `envconfig:"LOCKERLEND_BANK_BASE_URL"`
	APIKey           string        `envconfig:"LOCKERLEND_BANK_API_KEY"`
	Timeout          time.Duration `envconfig:"LOCKERLEND_BANK_TIMEOUT" default:"5s"`
	CurrencyExponent int32         `envconfig:"LOCKERLEND_BANK_CURRENCY_EXPONENT" default:"0"`
	BreakerTimeout   time.Duration `envconfig:"LOCKERLEND_BANK_BREAKER_TIMEOUT" default:"30s"`
	BreakerMinCalls  uint32        `envconfig:"LOCKERLEND_BANK_BREAKER_MIN_CALLS" default:"3"`
}

// IsSandbox reports whether bank calls are simulated in-process.
func (b BankConfig) IsSandbox() bool {
	mode := strings.TrimSpace(strings.ToLower(b.Mode))
	return mode == "" || mode == BankModeSandbox
}

func (b BankConfig) validate() error {
	if b.IsSandbox() {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(b.Mode), BankModeHTTP) {
		return fmt.Errorf("unsupported %s %q", EnvBankMode, b.Mode)
	}
	if strings.TrimSpace(b.BaseURL) == "" {
		return fmt.Errorf("%s is required when %s=%s", EnvBankBaseURL, EnvBankMode, BankModeHTTP)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOCKERLEND_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LOCKERLEND_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOCKERLEND_GOOGLE_APPLICATION_CREDENTIALS"`
}

// GCSConfig points at the bucket holding return photos. An empty bucket disables key validation.
type GCSConfig struct {
	BucketName string `envconfig:"LOCKERLEND_GCS_BUCKET_NAME"`
}

// PubSubConfig configures notification fan-out. An empty topic keeps notifications in-app only.
type PubSubConfig struct {
	NotificationTopic string `envconfig:"LOCKERLEND_PUBSUB_NOTIFICATION_TOPIC"`
}

// ensureDSN fills DSN from the sqlite default or the discrete host settings.
func (db *DBConfig) ensureDSN(useSQLite bool) error {
	switch {
	case db.DSN != "":
		return nil
	case useSQLite:
		db.DSN = defaultSQLiteDSN
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.LegacyHost, EnvDBUser: db.LegacyUser, EnvDBName: db.LegacyName} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		u.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}
