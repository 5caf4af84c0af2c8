package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	ServiceName string
	ServerAddr  string
	LogLevel    string

	DBDriver     string
	DatabaseURL  string
	PGDriverName string

	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	CORSOrigins  []string
	CookieSecure bool

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func LoadDotEnv() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
}

// Load reads .env (if any) and the process environment once.
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	driver := strings.ToLower(envDefault(getenv, "DB_DRIVER", DriverSQLite))
	dsn := getenv("DATABASE_URL")
	if dsn == "" && driver == DriverSQLite {
		dsn = "triketime.db"
	}

	accessMin, accessErr := envIntDefault(getenv, "JWT_ACCESS_MIN", 20)
	refreshDays, refreshErr := envIntDefault(getenv, "JWT_REFRESH_DAYS", 14)

	cfg := &Config{
		ServiceName: envDefault(getenv, "SERVICE_NAME", "triketime"),
		ServerAddr:  envDefault(getenv, "SERVER_ADDR", ":8080"),
		LogLevel:    envDefault(getenv, "LOG_LEVEL", "info"),

		DBDriver:     driver,
		DatabaseURL:  dsn,
		PGDriverName: getenv("PG_DRIVER_NAME"),

		Secret:     []byte(getenv("SECRET_KEY")),
		AccessTTL:  time.Duration(accessMin) * time.Minute,
		RefreshTTL: time.Duration(refreshDays) * 24 * time.Hour,

		CORSOrigins:  CSV(getenv("CORS_ORIGINS")),
		CookieSecure: getenv("COOKIE_SECURE") == "true",

		KafkaBrokers: CSV(getenv("KAFKA_BROKERS")),
		KafkaTopic:   envDefault(getenv, "KAFKA_TOPIC", "shift_events"),

		ESURL:      getenv("ES_URL"),
		ESUser:     getenv("ES_USER"),
		ESPassword: getenv("ES_PASSWORD"),
		ESIndex:    envDefault(getenv, "ES_INDEX", "shift_events"),
	}

	if err := errors.Join(accessErr, refreshErr, cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Secret) == 0 {
		errs = append(errs, errors.New("missing required env SECRET_KEY"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_MIN must be positive"))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_DAYS must be positive"))
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.DBDriver == DriverPostgres && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
	}
	return errors.Join(errs...)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
