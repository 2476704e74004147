package core

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/InsulaLabs/sphere/config"
	"github.com/InsulaLabs/sphere/service/admin"
	"github.com/InsulaLabs/sphere/service/content"
	"github.com/InsulaLabs/sphere/service/identity"
	"github.com/InsulaLabs/sphere/service/notify"
	"github.com/InsulaLabs/sphere/service/search"
	"github.com/InsulaLabs/sphere/service/upload"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

const (
	CategoryAuth    = "auth"
	CategoryContent = "content"
	CategoryAdmin   = "admin"
	CategoryUpload  = "upload"
	CategoryDefault = "default"
)

// Services is everything the HTTP layer dispatches to.
type Services struct {
	Identity *identity.Manager
	Content  *content.Service
	Notify   *notify.Notifier
	Search   *search.Searcher
	Admin    *admin.Admin
	Upload   *upload.Ingest
}

type Core struct {
	appCtx context.Context
	cfg    *config.Config
	logger *slog.Logger
	svc    Services
	mux    *http.ServeMux

	buildOnce sync.Once
	stopOnce  sync.Once
	handler   http.Handler
	startedAt time.Time

	trusted      map[string]struct{}
	rateLimiters map[string]*ttlcache.Cache[string, *rate.Limiter]
}

func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, svc Services) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("core: config is required")
	}
	if svc.Identity == nil || svc.Content == nil || svc.Notify == nil ||
		svc.Search == nil || svc.Admin == nil || svc.Upload == nil {
		return nil, errors.New("core: every service must be provided")
	}

	rateLimiters := make(map[string]*ttlcache.Cache[string, *rate.Limiter])
	rlLogger := logger.With("component", "rate-limiter")

	makeCategoryRateLimiter := func() *ttlcache.Cache[string, *rate.Limiter] {
		cache := ttlcache.New[string, *rate.Limiter](
			ttlcache.WithTTL[string, *rate.Limiter](time.Minute*1),
			ttlcache.WithDisableTouchOnHit[string, *rate.Limiter](),
		)
		go cache.Start()
		return cache
	}

	for category, rlConfig := range limiterConfigs(cfg) {
		if rlConfig.Limit <= 0 {
			continue
		}
		rateLimiters[category] = makeCategoryRateLimiter()
		rlLogger.Info("Initialized rate limiter", "category", category, "limit", rlConfig.Limit, "burst", rlConfig.Burst)
	}

	trusted := make(map[string]struct{}, len(cfg.TrustedProxies))
	for _, proxy := range cfg.TrustedProxies {
		trusted[proxy] = struct{}{}
	}

	return &Core{
		appCtx:       ctx,
		cfg:          cfg,
		logger:       logger,
		svc:          svc,
		mux:          http.NewServeMux(),
		trusted:      trusted,
		rateLimiters: rateLimiters,
	}, nil
}

func limiterConfigs(cfg *config.Config) map[string]config.RateLimiterConfig {
	return map[string]config.RateLimiterConfig{
		CategoryAuth:    cfg.RateLimiters.Auth,
		CategoryContent: cfg.RateLimiters.Content,
		CategoryAdmin:   cfg.RateLimiters.Admin,
		CategoryUpload:  cfg.RateLimiters.Upload,
		CategoryDefault: cfg.RateLimiters.Default,
	}
}

// Handler returns the fully wrapped API handler. Routes are registered on
// first use.
func (c *Core) Handler() http.Handler {
	c.buildOnce.Do(func() {
		c.registerRoutes()
		c.handler = c.corsMiddleware(c.mux)
	})
	return c.handler
}

// Run serves until the app context is cancelled.
func (c *Core) Run() {
	httpListenAddr := c.cfg.HttpBinding
	tlsEnabled := c.cfg.TLS.Cert != "" && c.cfg.TLS.Key != ""
	c.logger.Info("Attempting to start server", "listen_addr", httpListenAddr, "tls_enabled", tlsEnabled)

	srv := &http.Server{
		Addr:              httpListenAddr,
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-c.appCtx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("Server shutdown error", "error", err)
		}
	}()

	c.startedAt = time.Now()

	if tlsEnabled {
		c.logger.Info("Starting HTTPS server", "cert", c.cfg.TLS.Cert, "key", c.cfg.TLS.Key)
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		if err := srv.ListenAndServeTLS(c.cfg.TLS.Cert, c.cfg.TLS.Key); err != http.ErrServerClosed {
			c.logger.Error("HTTPS server error", "error", err)
		}
	} else {
		c.logger.Info("TLS cert or key not specified in config. Starting HTTP server (insecure).")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Error("HTTP server error", "error", err)
		}
	}

	c.Stop()
	c.logger.Info("Server stopped")
}

// Stop releases the rate limiter caches. Run calls it on shutdown; tests
// that only use Handler call it directly.
func (c *Core) Stop() {
	c.stopOnce.Do(func() {
		for _, limiter := range c.rateLimiters {
			limiter.Stop()
		}
	})
}
