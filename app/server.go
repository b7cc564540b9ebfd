package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kasuganosora/gjtracker/api/rest"
	"github.com/kasuganosora/gjtracker/api/sse"
	mw "github.com/kasuganosora/gjtracker/middleware"
)

const shutdownTimeout = 10 * time.Second

// Router builds the HTTP handler. ctx bounds background middleware work.
func (a *App) Router(ctx context.Context) *gin.Engine {
	cfg := a.Config
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(a.Logger), mw.Recover(a.Logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(mw.IPWhitelist(cfg.Security.AllowedIPs, a.Logger), mw.APIKey(cfg.Server.APIKey))
	rest.Register(api, a.Store, a.Audit)
	api.GET("/events", sse.NewHandler(a.PubSub, a.Logger).ServeSSE)

	if cfg.Server.APIKey == "" {
		a.Logger.Warn("server.api_key is not set; the API is open")
	}
	return r
}

// Serve runs the HTTP server and the reminder ticker until ctx is done, then
// shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	a.StartReminders(a.Config.Tracker.ReminderInterval)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
