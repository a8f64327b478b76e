// Package app boots the TillerQuest engine server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/config"
	"github.com/jonp-h/TillerQuest-sub003/internal/cosmic"
	"github.com/jonp-h/TillerQuest-sub003/internal/db"
	"github.com/jonp-h/TillerQuest-sub003/internal/engine"
	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/guild"
	"github.com/jonp-h/TillerQuest-sub003/internal/http/api"
	"github.com/jonp-h/TillerQuest-sub003/internal/mana"
	"github.com/jonp-h/TillerQuest-sub003/internal/ratelimit"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(cfg config.AppConfig) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	notifier := gamelog.NewNotifier(conn)
	limiter := ratelimit.NewManager(func() ratelimit.SettingsConfig {
		return ratelimit.LoadSettingsConfig(conn)
	}, nil, nil)

	deps := api.Deps{
		DB:       conn,
		JWT:      cfg.JWT,
		Engine:   engine.New(conn, notifier),
		Economy:  guild.NewEconomy(conn),
		Selector: cosmic.NewSelector(conn),
		Regen:    mana.NewRegenerator(conn),
		Notifier: notifier,
		Limiter:  limiter,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("app: server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", errServe)
		}
		return nil
	}
}
