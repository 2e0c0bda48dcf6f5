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
	Web           WebConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHAI_APP_ENV" required:"true"`
	Port         string `envconfig:"CHAI_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"CHAI_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"CHAI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHAI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// WebConfig locates the public site so payment redirects can land back on it.
type WebConfig struct {
	BaseURL        string   `envconfig:"CHAI_WEB_BASE_URL" default:"http://localhost:3000"`
	AllowedOrigins []string `envconfig:"CHAI_WEB_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type DBConfig struct {
	DSN    string `envconfig:"CHAI_DB_DSN"`
	Driver string `envconfig:"CHAI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHAI_DB_HOST"`
	LegacyPort     int    `envconfig:"CHAI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHAI_DB_USER"`
	LegacyPassword string `envconfig:"CHAI_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHAI_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHAI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHAI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHAI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHAI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHAI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHAI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHAI_REDIS_ADDR"`
	Password     string        `envconfig:"CHAI_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHAI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHAI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHAI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHAI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHAI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHAI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CHAI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHAI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CHAI_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CHAI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CHAI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CHAI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CHAI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CHAI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CHAI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CHAI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CHAI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CHAI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CHAI_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CHAI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHAI_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey          string        `envconfig:"CHAI_STRIPE_API_KEY"`
	WebhookSecret   string        `envconfig:"CHAI_STRIPE_WEBHOOK_SECRET"`
	Env             string        `envconfig:"CHAI_STRIPE_ENV" default:"test"`
	Currency        string        `envconfig:"CHAI_STRIPE_CURRENCY" default:"inr"`
	CheckoutTimeout time.Duration `envconfig:"CHAI_STRIPE_CHECKOUT_TIMEOUT" default:"5s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
