// Package app wires configuration, database, background workers and the
// HTTP surface into a runnable server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/amira30til/ScanToWin-sub001/internal/config"
	"github.com/amira30til/ScanToWin-sub001/internal/db"
	adminapi "github.com/amira30til/ScanToWin-sub001/internal/http/api/admin"
	"github.com/amira30til/ScanToWin-sub001/internal/http/api/pub"
	"github.com/amira30til/ScanToWin-sub001/internal/lock"
	"github.com/amira30til/ScanToWin-sub001/internal/logging"
	"github.com/amira30til/ScanToWin-sub001/internal/mail"
	"github.com/amira30til/ScanToWin-sub001/internal/maintain"
	"github.com/amira30til/ScanToWin-sub001/internal/play"
	"github.com/amira30til/ScanToWin-sub001/internal/reward"
	"github.com/amira30til/ScanToWin-sub001/internal/seed"
	"github.com/amira30til/ScanToWin-sub001/internal/settings"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs schema migrations.
func Migrate(cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// Seed migrates the schema and loads demo data.
func Seed(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errAdmin := seed.EnsureSuperAdmin(ctx, conn); errAdmin != nil {
		return errAdmin
	}
	return seed.Demo(ctx, conn)
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		return errRefresh
	}
	if errAdmin := seed.EnsureSuperAdmin(ctx, conn); errAdmin != nil {
		return errAdmin
	}

	var notifier mail.Notifier = mail.LogNotifier{}
	if smtp := mail.NewSMTPNotifier(cfg.SMTP); smtp != nil {
		notifier = smtp
	}
	playLock := lock.New(cfg.Redis, cfg.Play.LockTTL)
	if playLock != nil {
		defer func() {
			if errClose := playLock.Close(); errClose != nil {
				log.WithError(errClose).Warn("close play lock failed")
			}
		}()
	}

	drawer := reward.NewDrawer()
	engine := play.NewEngine(conn, drawer, notifier, playLock, cfg.Play.Cooldown)

	if sweeper := maintain.NewSweeper(conn); sweeper != nil {
		sweeper.Start(ctx)
	}

	router := newRouter()
	pub.RegisterPublicRoutes(router, conn, engine, drawer)
	adminapi.RegisterAdminRoutes(router, conn, cfg.JWT)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case errServe := <-serveErr:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	return nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Info("request")
	}
}
