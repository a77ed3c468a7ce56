package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Market        MarketConfig
	Checkout      CheckoutConfig
	Inventory     InventoryConfig
	Returns       ReturnsConfig
	Notifications NotificationsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZARIKA_FEATURE_AUTO_MIGRATE" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Market.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAZARIKA_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZARIKA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAZARIKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAZARIKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BAZARIKA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BAZARIKA_DB_DSN"`
	Driver string `envconfig:"BAZARIKA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAZARIKA_DB_HOST"`
	LegacyPort     int    `envconfig:"BAZARIKA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAZARIKA_DB_USER"`
	LegacyPassword string `envconfig:"BAZARIKA_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAZARIKA_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAZARIKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZARIKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZARIKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZARIKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZARIKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZARIKA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAZARIKA_REDIS_ADDR"`
	Password     string        `envconfig:"BAZARIKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZARIKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZARIKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZARIKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZARIKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZARIKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZARIKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZARIKA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZARIKA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAZARIKA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// MarketConfig carries marketplace-wide pricing knobs. The commission rate
// is deliberately configuration, not a constant in code.
type MarketConfig struct {
	CommissionRate   string `envconfig:"BAZARIKA_MARKET_COMMISSION_RATE" default:"0.15"`
	VATRate          string `envconfig:"BAZARIKA_MARKET_VAT_RATE" default:"0.15"`
	Currency         string `envconfig:"BAZARIKA_MARKET_CURRENCY" default:"BDT"`
	ShippingFlatFee  int64  `envconfig:"BAZARIKA_MARKET_SHIPPING_FLAT_FEE" default:"6000"`
	ShippingPerItem  int64  `envconfig:"BAZARIKA_MARKET_SHIPPING_PER_ITEM" default:"1000"`
	CODFee           int64  `envconfig:"BAZARIKA_MARKET_COD_FEE" default:"2000"`
	FreeShippingOver int64  `envconfig:"BAZARIKA_MARKET_FREE_SHIPPING_OVER" default:"500000"`
}

func (m MarketConfig) validate() error {
	if _, err := decimal.NewFromString(m.CommissionRate); err != nil {
		return fmt.Errorf("parsing %s: %w", EnvCommissionRate, err)
	}
	if _, err := decimal.NewFromString(m.VATRate); err != nil {
		return fmt.Errorf("parsing vat rate: %w", err)
	}
	return nil
}

// Commission returns the configured platform commission rate.
func (m MarketConfig) Commission() decimal.Decimal {
	rate, err := decimal.NewFromString(m.CommissionRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// VAT returns the configured VAT rate.
func (m MarketConfig) VAT() decimal.Decimal {
	rate, err := decimal.NewFromString(m.VATRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"BAZARIKA_CHECKOUT_SESSION_TTL" default:"30m"`
}

type InventoryConfig struct {
	ReservationTTL time.Duration `envconfig:"BAZARIKA_INVENTORY_RESERVATION_TTL" default:"30m"`
	SweepInterval  time.Duration `envconfig:"BAZARIKA_INVENTORY_SWEEP_INTERVAL" default:"5m"`
}

type ReturnsConfig struct {
	WindowDays        int    `envconfig:"BAZARIKA_RETURNS_WINDOW_DAYS" default:"14"`
	RestockingFeeRate string `envconfig:"BAZARIKA_RETURNS_RESTOCKING_FEE_RATE" default:"0"`
}

// Window returns the return eligibility window.
func (r ReturnsConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
}

// RestockingFee returns the configured restocking deduction rate.
func (r ReturnsConfig) RestockingFee() decimal.Decimal {
	rate, err := decimal.NewFromString(r.RestockingFeeRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type NotificationsConfig struct {
	MaxRetries    int           `envconfig:"BAZARIKA_NOTIFY_MAX_RETRIES" default:"3"`
	RetryInterval time.Duration `envconfig:"BAZARIKA_NOTIFY_RETRY_INTERVAL" default:"2m"`
	RetentionDays int           `envconfig:"BAZARIKA_NOTIFY_RETENTION_DAYS" default:"90"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BAZARIKA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BAZARIKA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BAZARIKA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BAZARIKA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic              string `envconfig:"BAZARIKA_PUBSUB_EVENTS_TOPIC" default:"domain-events"`
	NotificationSubscription string `envconfig:"BAZARIKA_PUBSUB_NOTIFY_SUBSCRIPTION" default:"domain-events.notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BAZARIKA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BAZARIKA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BAZARIKA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"BAZARIKA_OUTBOX_RETENTION_DAYS" default:"30"`
}

// RateLimitConfig throttles the two surfaces worth probing in bulk: starting
// checkout sessions (which reserve stock) and the public availability check.
// A zero window or limit disables the corresponding policy.
type RateLimitConfig struct {
	CheckoutWindow     time.Duration `envconfig:"BAZARIKA_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit      int           `envconfig:"BAZARIKA_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
	AvailabilityWindow time.Duration `envconfig:"BAZARIKA_RATE_LIMIT_AVAILABILITY_WINDOW" default:"1m"`
	AvailabilityLimit  int           `envconfig:"BAZARIKA_RATE_LIMIT_AVAILABILITY_LIMIT" default:"120"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
