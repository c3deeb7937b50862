package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	OrderLimit    OrderRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Secsers       SecsersConfig
	Reconcile     ReconcileConfig
	CDN           CDNConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Mailer        MailerConfig
	Outbox        OutboxConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Secsers.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOSTGRID_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOSTGRID_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOSTGRID_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOSTGRID_LOG_WARN_STACK" default:"false"`
	Currency     string `envconfig:"BOOSTGRID_SITE_CURRENCY" default:"USD"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOSTGRID_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BOOSTGRID_DB_DSN"`
	Driver string `envconfig:"BOOSTGRID_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOSTGRID_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOSTGRID_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOSTGRID_DB_USER"`
	LegacyPassword string `envconfig:"BOOSTGRID_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOSTGRID_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOSTGRID_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOSTGRID_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOSTGRID_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOSTGRID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOSTGRID_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOSTGRID_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOSTGRID_REDIS_ADDR"`
	Password     string        `envconfig:"BOOSTGRID_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOSTGRID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOSTGRID_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOSTGRID_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOSTGRID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOSTGRID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOSTGRID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BOOSTGRID_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BOOSTGRID_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BOOSTGRID_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BOOSTGRID_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOOSTGRID_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOOSTGRID_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOOSTGRID_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOOSTGRID_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOOSTGRID_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BOOSTGRID_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BOOSTGRID_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BOOSTGRID_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow       time.Duration `envconfig:"BOOSTGRID_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit   int           `envconfig:"BOOSTGRID_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit      int           `envconfig:"BOOSTGRID_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type OrderRateLimitConfig struct {
	Window    time.Duration `envconfig:"BOOSTGRID_ORDER_RATE_LIMIT_WINDOW" default:"1m"`
	UserLimit int           `envconfig:"BOOSTGRID_ORDER_RATE_LIMIT_USER_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOSTGRID_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOSTGRID_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BOOSTGRID_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// SecsersConfig holds credentials for the upstream fulfillment API. Every
// operation is a form-encoded POST against APIURL authenticated by APIKey.
type SecsersConfig struct {
	APIURL  string        `envconfig:"BOOSTGRID_SECSERS_API_URL" required:"true"`
	APIKey  string        `envconfig:"BOOSTGRID_SECSERS_API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"BOOSTGRID_SECSERS_TIMEOUT" default:"30s"`
}

func (s SecsersConfig) validate() error {
	if strings.TrimSpace(s.APIURL) == "" {
		return fmt.Errorf("%s is required", EnvSecsersAPIURL)
	}
	if _, err := url.Parse(s.APIURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvSecsersAPIURL, err)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvSecsersTimeout)
	}
	return nil
}

// ReconcileConfig drives the provider-order status sweep. OpenStatuses is
// the comma-separated set of local statuses still awaiting provider
// convergence; matching is exact string equality.
type ReconcileConfig struct {
	Interval     time.Duration `envconfig:"BOOSTGRID_RECONCILE_INTERVAL" default:"5m"`
	OpenStatuses []string      `envconfig:"BOOSTGRID_RECONCILE_OPEN_STATUSES" default:"Pending,In progress,Processing,Partial"`
	PageSize     int           `envconfig:"BOOSTGRID_RECONCILE_PAGE_SIZE" default:"200"`
}

type CDNConfig struct {
	BaseURL string `envconfig:"BOOSTGRID_CDN_BASE_URL"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOOSTGRID_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BOOSTGRID_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOOSTGRID_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"BOOSTGRID_PUBSUB_NOTIFICATION_TOPIC" default:"bg-notification-events"`
	NotificationSubscription string `envconfig:"BOOSTGRID_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type MailerConfig struct {
	FromEmail string `envconfig:"BOOSTGRID_MAILER_FROM_EMAIL" default:"no-reply@boostgrid.io"`
	Enabled   bool   `envconfig:"BOOSTGRID_MAILER_ENABLED" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BOOSTGRID_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BOOSTGRID_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BOOSTGRID_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MetricsConfig struct {
	Addr string `envconfig:"BOOSTGRID_METRICS_ADDR" default:":9091"`
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
