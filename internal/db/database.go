package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/triketime/internal/config"
	"github.com/Skotchmaster/triketime/internal/models"
)

const uniqueViolation = "23505"

var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_open_per_user ON shifts (user_id) WHERE end_time IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_active_per_user ON activities (user_id) WHERE end_time IS NULL`,
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Logger sends gorm warnings (slow queries, failed statements) through l.
// Expected "record not found" lookups are not logged.
func Logger(l *slog.Logger) logger.Interface {
	return logger.New(
		slog.NewLogLogger(l.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func GormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         Logger(slog.Default()),
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.DatabaseURL), nil
	case config.DriverPostgres:
		return postgres.New(postgres.Config{
			DriverName: cfg.PGDriverName,
			DSN:        cfg.DatabaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}
}

// Open connects, sizes the pool for the dialect and pings the store.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		if err := PrepareSQLite(db); err != nil {
			return nil, err
		}
	} else {
		configurePool(sqlDB)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// PrepareSQLite pins SQLite to one connection so transactions serialize and
// per-connection pragmas stick.
func PrepareSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Shift{}, &models.Activity{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation recognises duplicate-key errors from every supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
