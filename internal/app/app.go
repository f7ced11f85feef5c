package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/account"
	"github.com/onelinediary/server/internal/billing"
	"github.com/onelinediary/server/internal/config"
	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/garden"
	"github.com/onelinediary/server/internal/http/api/front"
	"github.com/onelinediary/server/internal/identity"
	"github.com/onelinediary/server/internal/journal"
	"github.com/onelinediary/server/internal/ratelimit"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	log.Info("migrations applied")
	return nil
}

// RunServer serves the diary API until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	conn, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	deps := buildDeps(conn, cfg)
	front.RegisterFrontRoutes(engine, deps)

	billing.NewSweeper(deps.Subscriptions, 0).Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errServe := make(chan error, 1)
	go func() {
		log.Infof("starting diary server on %s", srv.Addr)
		if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
			errServe <- errListen
		}
		close(errServe)
	}()

	select {
	case errListen := <-errServe:
		return errListen
	case <-ctx.Done():
	}

	log.Info("shutting down diary server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown server: %w", errShutdown)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg config.AppConfig) (*gorm.DB, error) {
	if summary, errDescribe := describeDSN(cfg.Database.DSN); errDescribe == nil {
		log.Infof("database: %s", summary)
	}
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		return nil, fmt.Errorf("db: sql handle: %w", errDB)
	}
	if errPing := sqlDB.PingContext(ctx); errPing != nil {
		return nil, fmt.Errorf("db: ping: %w", errPing)
	}
	return conn, nil
}

func buildDeps(conn *gorm.DB, cfg config.AppConfig) front.Deps {
	accounts := account.NewService(conn)
	resolver := identity.NewResolver(conn, accounts)
	diaries := journal.NewStore(conn, cfg.Location())
	gardenStore := garden.NewStore(conn, diaries)
	subscriptions := billing.NewService(conn)

	stripeProvider := billing.NewStripeProvider(cfg.Stripe, cfg.Server.BaseURL, nil)
	iamport := billing.NewIamportVerifier(cfg.Iamport, nil)
	toss := billing.NewTossVerifier(cfg.Toss, nil)
	logProviders(stripeProvider != nil, iamport != nil, toss != nil)

	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsFromConfig(cfg.RateLimit)), nil, nil)

	return front.Deps{
		DB:            conn,
		Config:        cfg,
		Accounts:      accounts,
		Resolver:      resolver,
		Diaries:       diaries,
		Garden:        gardenStore,
		Subscriptions: subscriptions,
		Payments:      billing.NewPayments(subscriptions, stripeProvider, iamport, toss, resolver),
		Limiter:       limiter,
	}
}

func logProviders(stripeEnabled, iamportEnabled, tossEnabled bool) {
	log.WithFields(log.Fields{
		"stripe":  stripeEnabled,
		"iamport": iamportEnabled,
		"toss":    tossEnabled,
	}).Info("payment providers")
}
