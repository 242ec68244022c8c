package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"phonehub/internal/catalog"
	"phonehub/internal/importer"
	"phonehub/internal/provider"
	"phonehub/pkg/config"
	"phonehub/pkg/database"
	"phonehub/pkg/logging"
	"phonehub/pkg/models"
)

// One-shot import run for cron jobs and local seeding. Same pipeline as
// the server's scheduler, without the HTTP surface.
func main() {
	var (
		kind    = flag.String("kind", "popular", "what to import: popular|latest|brands|search")
		query   = flag.String("q", "", "query for -kind=search")
		limit   = flag.Int("limit", 0, "result cap; 0 uses the configured default")
		timeout = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	var providers []provider.Provider
	if cfg.Providers.Specchaser.Enabled {
		p, err := provider.NewSpecchaser(cfg.Providers.Specchaser.BaseURL, cfg.Providers.Specchaser.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("specchaser setup failed")
		}
		providers = append(providers, p)
	}
	if cfg.Providers.Mobilefeed.Enabled {
		p, err := provider.NewMobilefeed(cfg.Providers.Mobilefeed.BaseURL, cfg.Providers.Mobilefeed.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("mobilefeed setup failed")
		}
		providers = append(providers, p)
	}

	svc := importer.New(catalog.NewRepo(db), providers, importer.Config{
		Currency:      cfg.Import.Currency,
		LatestLimit:   cfg.Import.LatestLimit,
		PerBrandLimit: cfg.Import.PerBrandLimit,
		PopularBrands: cfg.Import.PopularBrands,
	}, nil)

	res, err := runKind(ctx, svc, *kind, *query, *limit)
	if err != nil {
		log.Fatal().Err(err).Str("kind", *kind).Msg("import run failed")
	}

	log.Info().
		Str("run_id", res.RunID).
		Int("processed", res.Processed).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("import run complete")
	for _, e := range res.Errors {
		log.Warn().Str("detail", e).Msg("run error")
	}
}

func runKind(ctx context.Context, svc *importer.Service, kind, query string, limit int) (res models.ImportResult, err error) {
	switch kind {
	case "popular":
		return svc.ImportPopularBrands(ctx)
	case "latest":
		return svc.ImportLatest(ctx, limit)
	case "brands":
		return svc.ImportBrands(ctx)
	case "search":
		if query == "" {
			log.Fatal().Msg("-q is required with -kind=search")
		}
		return svc.SearchAndImport(ctx, query, limit)
	default:
		log.Fatal().Str("kind", kind).Msg("unknown import kind")
		return
	}
}
