package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"phonehub/internal/admin"
	"phonehub/internal/auth"
	"phonehub/internal/catalog"
	"phonehub/internal/events"
	"phonehub/internal/importer"
	"phonehub/internal/phones"
	"phonehub/internal/provider"
	"phonehub/internal/scheduler"
	"phonehub/pkg/config"
	"phonehub/pkg/database"
	"phonehub/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// config errors (missing API key for an enabled provider, bad
		// cadence) are fatal before anything starts
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("provider setup failed")
	}

	repo := catalog.NewRepo(db)
	hub := events.NewHub()

	imports := importer.New(repo, providers, importer.Config{
		Currency:      cfg.Import.Currency,
		LatestLimit:   cfg.Import.LatestLimit,
		PerBrandLimit: cfg.Import.PerBrandLimit,
		PopularBrands: cfg.Import.PopularBrands,
	}, hub)

	sched := scheduler.New(imports, scheduler.RealClock{}, cfg.Cadence())
	sched.Start()
	defer sched.Stop()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Database.Path})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "ws_clients": hub.Count()})
	})

	router.GET("/ws", events.WSHandler(hub))

	// public catalog
	phones.NewHandler(repo).RegisterRoutes(router.Group("/api"))

	// admin session + import control
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.JWTDuration(),
	}
	authRepo := auth.NewRepo(db)
	auth.NewHandler(authRepo, tokenSvc).RegisterRoutes(router.Group("/api/auth"))

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(auth.Middleware(tokenSvc, authRepo))
	admin.NewHandler(imports).RegisterRoutes(adminGroup)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Address).Msg("http api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	log.Info().Msg("server stopped")
}

// buildProviders constructs every enabled adapter. A construction error
// here means a bad key, which must stop the process before the scheduler
// fires its first run.
func buildProviders(cfg *config.Config) ([]provider.Provider, error) {
	var out []provider.Provider
	if cfg.Providers.Specchaser.Enabled {
		p, err := provider.NewSpecchaser(cfg.Providers.Specchaser.BaseURL, cfg.Providers.Specchaser.APIKey)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if cfg.Providers.Mobilefeed.Enabled {
		p, err := provider.NewMobilefeed(cfg.Providers.Mobilefeed.BaseURL, cfg.Providers.Mobilefeed.APIKey)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
