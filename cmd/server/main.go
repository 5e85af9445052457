package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"realm/internal/auth"
	"realm/internal/catalog"
	"realm/internal/config"
	"realm/internal/data"
	"realm/internal/logger"
	"realm/internal/session"
	"realm/internal/world"
)

const serviceName = "realm-server"

func main() {
	l := logger.CreateLogger(serviceName)
	l.Infof("Starting main service.")

	cfg, err := config.Load()
	if err != nil {
		l.WithError(err).Fatal("Unable to load configuration.")
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		l.Warn("JWT_SECRET is not set, tokens are signed with the built-in default.")
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		l.WithError(err).Fatalf("Unable to load catalog [%s].", cfg.CatalogPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, l, cfg)
	if err != nil {
		l.WithError(err).Fatalf("Unable to open [%s] store.", cfg.DBDriver)
	}
	defer closeStore()

	w := world.New(cat, world.Options{Logger: l, Random: world.NewRandom(cfg.WorldSeed)})
	w.Populate(time.Now())

	authn := auth.NewService(l, store, cfg.JWTSecret, cfg.TokenTTL)
	coord := session.NewCoordinator(l, w, cat, store, authn, cfg.TickInterval(), cfg.SaveInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           coord.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return coord.Run(gctx)
	})
	g.Go(func() error {
		l.Infof("Server starting on port [%s].", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.WithError(err).Error("Server stopped with error.")
	}
	l.Infof("Service shutdown.")
}

func openStore(ctx context.Context, l logrus.FieldLogger, cfg config.Config) (data.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		s, err := data.NewPostgresStoreFromURL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				l.WithError(err).Warn("Unable to close database.")
			}
		}, nil
	default:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
		if err != nil {
			return nil, nil, err
		}
		s, err := data.NewGormStore(db)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	}
}
