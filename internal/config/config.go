package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverMongo  = "mongo"
	DriverMemory = "memory"

	passwordPlaceholder = "<PASSWORD>"
)

// EnvFiles are read, when present, before the environment is consulted.
var EnvFiles = []string{"config.env", ".env"}

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Payments PaymentsConfig
	Security SecurityConfig
	Query    QueryConfig
	Mail     MailConfig
	Logging  LoggingConfig
}

type AppConfig struct {
	Env     string
	Port    string
	BaseURL string
}

func (c AppConfig) Development() bool {
	return c.Env != EnvProduction
}

type DatabaseConfig struct {
	URI      string
	Password string
	Name     string
	Driver   string
	Timeout  time.Duration
}

// ConnectionURI substitutes the password placeholder of URI.
func (c DatabaseConfig) ConnectionURI() string {
	return strings.ReplaceAll(c.URI, passwordPlaceholder, c.Password)
}

type AuthConfig struct {
	JWTSecret     string
	JWTExpiresIn  time.Duration
	CookieExpires time.Duration
	BcryptCost    int
}

type KafkaConfig struct {
	Brokers     []string
	GroupID     string
	TopicPrefix string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicDir string
}

type PaymentsConfig struct {
	WebhookSecret string
	Tolerance     time.Duration
}

type SecurityConfig struct {
	RateLimitMax    int
	RateLimitWindow time.Duration
	BodyLimit       string
	CORSOrigins     []string
}

type QueryConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type MailConfig struct {
	From string
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

// LoadEnvFiles overlays the process environment with EnvFiles. Missing
// files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = EnvFiles
	}
	for _, file := range files {
		if err := godotenv.Overload(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

var bindings = map[string][]string{
	"app.env":                    {"NODE_ENV", "APP_ENV"},
	"app.port":                   {"PORT"},
	"app.base_url":               {"BASE_URL"},
	"database.uri":               {"DATABASE", "DATABASE_URI"},
	"database.password":          {"DATABASE_PASSWORD"},
	"database.name":              {"DATABASE_NAME"},
	"database.driver":            {"DATABASE_DRIVER"},
	"database.timeout":           {"DATABASE_TIMEOUT"},
	"auth.jwt_secret":            {"JWT_SECRET"},
	"auth.jwt_expires_in":        {"JWT_EXPIRES_IN"},
	"auth.cookie_expires_in":     {"JWT_COOKIE_EXPIRES_IN"},
	"auth.bcrypt_cost":           {"BCRYPT_COST"},
	"kafka.brokers":              {"KAFKA_BROKERS", "KAFKA_BROKER"},
	"kafka.group_id":             {"KAFKA_GROUP_ID"},
	"kafka.topic_prefix":         {"KAFKA_TOPIC_PREFIX"},
	"storage.endpoint":           {"STORAGE_ENDPOINT"},
	"storage.access_key":         {"STORAGE_ACCESS_KEY"},
	"storage.secret_key":         {"STORAGE_SECRET_KEY"},
	"storage.bucket":             {"STORAGE_BUCKET"},
	"storage.use_ssl":            {"STORAGE_USE_SSL"},
	"storage.public_dir":         {"PUBLIC_DIR"},
	"payments.webhook_secret":    {"STRIPE_WEBHOOK_SECRET"},
	"payments.tolerance":         {"STRIPE_WEBHOOK_TOLERANCE"},
	"security.rate_limit_max":    {"RATE_LIMIT_MAX"},
	"security.rate_limit_window": {"RATE_LIMIT_WINDOW"},
	"security.body_limit":        {"BODY_LIMIT"},
	"security.cors_origins":      {"CORS_ORIGINS"},
	"query.default_limit":        {"QUERY_DEFAULT_LIMIT"},
	"query.max_limit":            {"QUERY_MAX_LIMIT"},
	"mail.from":                  {"EMAIL_FROM"},
	"logging.directory":          {"LOG_DIR"},
	"logging.level":              {"LOG_LEVEL"},
	"logging.format":             {"LOG_FORMAT"},
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("app.port", "3000")
	v.SetDefault("database.name", "natours")
	v.SetDefault("database.timeout", "10s")
	v.SetDefault("auth.jwt_expires_in", "90d")
	v.SetDefault("auth.cookie_expires_in", "90")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("kafka.group_id", "tours-api")
	v.SetDefault("kafka.topic_prefix", "tours-api.")
	v.SetDefault("storage.public_dir", "public")
	v.SetDefault("payments.tolerance", "5m")
	v.SetDefault("security.rate_limit_max", 100)
	v.SetDefault("security.rate_limit_window", "1h")
	v.SetDefault("security.body_limit", "10KB")
	v.SetDefault("security.cors_origins", "*")
	v.SetDefault("query.default_limit", 10)
	v.SetDefault("query.max_limit", 100)
	v.SetDefault("mail.from", "Tours API <hello@tours.io>")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load resolves the configuration from defaults, an optional config.yaml
// in configPaths and the environment, in increasing precedence.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()
	defaults(v)
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	if len(configPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var errs []error
	duration := func(key string) time.Duration {
		d, err := ParseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	days := func(key string) time.Duration {
		raw := strings.TrimSpace(v.GetString(key))
		if n, err := strconv.Atoi(raw); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
		return duration(key)
	}

	cfg := &Config{
		App: AppConfig{
			Env:     strings.ToLower(strings.TrimSpace(v.GetString("app.env"))),
			Port:    v.GetString("app.port"),
			BaseURL: strings.TrimRight(v.GetString("app.base_url"), "/"),
		},
		Database: DatabaseConfig{
			URI:      v.GetString("database.uri"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			Driver:   strings.ToLower(v.GetString("database.driver")),
			Timeout:  duration("database.timeout"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			JWTExpiresIn:  duration("auth.jwt_expires_in"),
			CookieExpires: days("auth.cookie_expires_in"),
			BcryptCost:    v.GetInt("auth.bcrypt_cost"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("kafka.brokers")),
			GroupID:     v.GetString("kafka.group_id"),
			TopicPrefix: v.GetString("kafka.topic_prefix"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("storage.endpoint"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			Bucket:    v.GetString("storage.bucket"),
			UseSSL:    v.GetBool("storage.use_ssl"),
			PublicDir: v.GetString("storage.public_dir"),
		},
		Payments: PaymentsConfig{
			WebhookSecret: v.GetString("payments.webhook_secret"),
			Tolerance:     duration("payments.tolerance"),
		},
		Security: SecurityConfig{
			RateLimitMax:    v.GetInt("security.rate_limit_max"),
			RateLimitWindow: duration("security.rate_limit_window"),
			BodyLimit:       v.GetString("security.body_limit"),
			CORSOrigins:     splitList(v.GetString("security.cors_origins")),
		},
		Query: QueryConfig{
			DefaultLimit: v.GetInt("query.default_limit"),
			MaxLimit:     v.GetInt("query.max_limit"),
		},
		Mail: MailConfig{From: v.GetString("mail.from")},
		Logging: LoggingConfig{
			Directory: v.GetString("logging.directory"),
			Level:     v.GetString("logging.level"),
			Format:    v.GetString("logging.format"),
		},
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverMemory
		if cfg.Database.URI != "" {
			cfg.Database.Driver = DriverMongo
		}
	}
	return cfg, errors.Join(errs...)
}

func (c *Config) validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Database.URI == "" {
			errs = append(errs, errors.New("DATABASE is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Query.MaxLimit <= 0 {
		errs = append(errs, errors.New("QUERY_MAX_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

// ParseDuration accepts Go durations plus a day suffix, e.g. "90d".
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if strings.HasSuffix(raw, "d") {
		n, err := strconv.ParseFloat(strings.TrimSuffix(raw, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
