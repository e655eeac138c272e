package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig namespace shared by every binary.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Config aggregates every runtime setting for the platform.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	SMTP          SMTPConfig
	Uploads       UploadsConfig
	FeatureFlags  FeatureFlagsConfig
}

// Load reads configuration from the environment.
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
	Env          string `envconfig:"FIXMATE_APP_ENV" required:"true"`
	Port         string `envconfig:"FIXMATE_APP_PORT" default:"8080"`
	BaseURL      string `envconfig:"FIXMATE_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"FIXMATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIXMATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FIXMATE_DB_DSN"`
	Driver string `envconfig:"FIXMATE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FIXMATE_DB_HOST"`
	Port     int    `envconfig:"FIXMATE_DB_PORT" default:"5432"`
	User     string `envconfig:"FIXMATE_DB_USER"`
	Password string `envconfig:"FIXMATE_DB_PASSWORD"`
	Name     string `envconfig:"FIXMATE_DB_NAME"`
	SSLMode  string `envconfig:"FIXMATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIXMATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIXMATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIXMATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIXMATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIXMATE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIXMATE_REDIS_ADDR"`
	Password     string        `envconfig:"FIXMATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIXMATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIXMATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIXMATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIXMATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIXMATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIXMATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FIXMATE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FIXMATE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FIXMATE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FIXMATE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIXMATE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIXMATE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIXMATE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIXMATE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIXMATE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FIXMATE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FIXMATE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FIXMATE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FIXMATE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FIXMATE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FIXMATE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// SMTPConfig drives the best-effort mail sender. Delivery failures are
// logged, never surfaced to API callers.
type SMTPConfig struct {
	Host        string `envconfig:"FIXMATE_SMTP_HOST"`
	Port        int    `envconfig:"FIXMATE_SMTP_PORT" default:"587"`
	Username    string `envconfig:"FIXMATE_SMTP_USERNAME"`
	Password    string `envconfig:"FIXMATE_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"FIXMATE_SMTP_FROM" default:"no-reply@fixmate.lk"`
}

// Enabled reports whether the sender has enough configuration to dial out.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type UploadsConfig struct {
	Dir         string `envconfig:"FIXMATE_UPLOADS_DIR" default:"uploads"`
	MaxUploadMB int    `envconfig:"FIXMATE_MAX_UPLOAD_MB" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FIXMATE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"FIXMATE_DB_HOST": db.Host,
		"FIXMATE_DB_USER": db.User,
		"FIXMATE_DB_NAME": db.Name,
	}
	for _, key := range []string{"FIXMATE_DB_HOST", "FIXMATE_DB_USER", "FIXMATE_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either FIXMATE_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
