// Package app wires the CMS daemon together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/celerix-dev/celerix-cms/internal/activity"
	"github.com/celerix-dev/celerix-cms/internal/api"
	"github.com/celerix-dev/celerix-cms/internal/carousel"
	"github.com/celerix-dev/celerix-cms/internal/config"
	"github.com/celerix-dev/celerix-cms/internal/server"
	"github.com/celerix-dev/celerix-cms/internal/site"
	"github.com/celerix-dev/celerix-cms/internal/vault"
	"github.com/celerix-dev/celerix-cms/pkg/engine"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

// Run is the daemon entry point. It blocks until ctx is cancelled or a
// listener fails, then shuts everything down.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting celerix-cms",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	store, err := sdk.New(sdk.Options{
		RemoteAddr: cfg.Store.RemoteAddr,
		DisableTLS: cfg.Server.DisableTLS,
		DataDir:    cfg.Store.DataDir,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	mem, embedded := store.(*engine.MemStore)

	log, closeLog, err := openActivityLog(cfg.Activity, store, logger)
	if err != nil {
		return err
	}
	defer closeLog()

	carousels := carousel.NewRegistry(store, CarouselConfigs(cfg.Carousel), logger)
	if err := carousels.Load(); err != nil {
		logger.Warn("carousel.load", slog.Any("error", err))
	}
	clients := site.NewClientList(store, logger)
	if err := clients.Refresh(); err != nil {
		logger.Warn("site.clients.load", slog.Any("error", err))
	}
	if w, ok := store.(sdk.Watcher); ok {
		carousels.Watch(w)
		clients.Watch(w)
	}
	defer carousels.Close()
	defer clients.Close()

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr: net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.HTTPPort)),
		Handler: api.NewRouter(&api.Handler{
			Store:     store,
			Activity:  log,
			Recorder:  activity.NewRecorder(log, logger),
			Carousels: carousels,
			Clients:   clients,
			Feed:      activity.FeedOptions{Limit: cfg.Activity.FetchLimit, PageSize: cfg.Activity.PageSize},
			Version:   BuildVersion(),
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http.listen", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Only the embedded engine is served over TCP; a remote store already has its daemon.
	var router *server.Router
	if embedded {
		router = server.NewRouter(mem, logger)
		if !cfg.Server.DisableTLS {
			cert, err := vault.GenerateSelfSignedCert()
			if err != nil {
				return fmt.Errorf("generate tls certificate: %w", err)
			}
			router.SetCertificate(cert)
		}
		go func() {
			logger.Info("tcp.listen", slog.Int("port", cfg.Server.TCPPort), slog.Bool("tls", !cfg.Server.DisableTLS))
			if err := router.Listen(strconv.Itoa(cfg.Server.TCPPort)); err != nil {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, finalizing disk writes")
	case err = <-errCh:
		logger.Error("listener failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http.shutdown", slog.Any("error", shutdownErr))
	}
	if router != nil {
		router.Stop()
	}
	if embedded {
		mem.Wait()
		logger.Info("persistence complete")
	}
	return err
}

// openActivityLog builds the configured activity log backend.
func openActivityLog(cfg config.ActivityConfig, store sdk.DocumentStore, logger *slog.Logger) (activity.Log, func(), error) {
	clock := clockwork.NewRealClock()
	switch cfg.Driver {
	case config.DriverSQLite:
		l, err := activity.NewSQLiteLog(cfg.SQLitePath, clock, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open activity log: %w", err)
		}
		return l, func() { l.Close() }, nil
	default:
		return activity.NewDocumentLog(store, clock, logger), func() {}, nil
	}
}

// CarouselConfigs maps carousel settings onto the site carousels.
func CarouselConfigs(cfg config.CarouselConfig) map[string]carousel.Config {
	mk := func(interval time.Duration) carousel.Config {
		return carousel.Config{Interval: interval, Lock: cfg.LockDuration, AutoPlay: true}
	}
	return map[string]carousel.Config{
		carousel.Hero:         mk(cfg.HeroInterval),
		carousel.Testimonials: mk(cfg.TestimonialsInterval),
		carousel.Portfolio:    mk(cfg.PortfolioInterval),
	}
}
