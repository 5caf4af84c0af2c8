package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"

	"github.com/Skotchmaster/triketime/internal/config"
	"github.com/Skotchmaster/triketime/internal/db"
	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/httpserver"
	"github.com/Skotchmaster/triketime/internal/logging"
	"github.com/Skotchmaster/triketime/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/triketime/internal/middleware/logging"
	"github.com/Skotchmaster/triketime/internal/repo"
	"github.com/Skotchmaster/triketime/internal/service"
)

// buildPublisher wires the configured event sinks. A sink that cannot be
// reached at startup is skipped, not fatal.
func buildPublisher(cfg *config.Config, l *slog.Logger) (events.Publisher, func()) {
	var sinks events.Multi
	closers := []func(){}

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, l)
		if err != nil {
			l.Warn("kafka_disabled", "error", err)
		} else {
			sinks = append(sinks, kp)
			closers = append(closers, func() {
				if err := kp.Close(); err != nil {
					l.Error("kafka close error", "error", err)
				}
			})
		}
	}

	if cfg.ESURL != "" {
		es, err := events.NewElasticIndexer(elasticsearch.Config{
			Addresses: []string{cfg.ESURL},
			Username:  cfg.ESUser,
			Password:  cfg.ESPassword,
		}, cfg.ESIndex)
		if err != nil {
			l.Warn("elasticsearch_disabled", "error", err)
		} else {
			sinks = append(sinks, es)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(sinks) == 0 {
		return events.Nop{}, closeAll
	}
	return sinks, closeAll
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(l)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	publisher, closePublisher := buildPublisher(cfg, l)

	gormRepo := &repo.GormRepo{DB: gdb}
	tokens := &service.TokenService{
		Repo:       gormRepo,
		Secret:     cfg.Secret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(loggingmw.RequestLogger(l))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:          &service.AuthService{Repo: gormRepo, Tokens: tokens, Events: publisher},
			CookieSecure: cfg.CookieSecure,
		},
		ShiftHandler: &httpserver.ShiftHTTP{
			Svc: &service.ShiftService{Repo: gormRepo, Events: publisher},
		},
		Session: auth.NewSession(cfg.Secret),
		Origins: cfg.CORSOrigins,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	}).Handler(e)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		l.Info("http server started", "addr", cfg.ServerAddr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error("server shutdown error", "error", err)
	}

	closePublisher()

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			l.Error("db close error", "error", err)
		}
	} else {
		l.Error("db() error", "error", err)
	}

	l.Info("shutdown complete")
}
