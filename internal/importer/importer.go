// Package importer orchestrates import runs: it pulls raw records from the
// provider adapters, normalizes them, reconciles each candidate against the
// catalog, and reports aggregate results. No single record's or brand's
// failure aborts a run; failures are collected into the run's error list.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"phonehub/internal/normalize"
	"phonehub/internal/provider"
	pkgerrors "phonehub/pkg/errors"
	"phonehub/pkg/models"
)

// Store is the catalog surface the importer needs. *catalog.Repo satisfies it.
type Store interface {
	FindByIdentityKey(ctx context.Context, key string) (*models.Device, error)
	UpsertDevice(ctx context.Context, d models.Device) error
	FindBrandBySlug(ctx context.Context, slug string) (*models.Brand, error)
	UpsertBrand(ctx context.Context, b models.Brand) error
	Counts(ctx context.Context) (brands, devices int, err error)
	RecomputeBrandCounts(ctx context.Context) error
}

// Notifier receives run lifecycle events. Implementations must not block.
type Notifier interface {
	RunStarted(runID, kind string)
	DeviceReconciled(runID string, device models.Device, outcome string)
	RunFinished(runID, kind string, result models.ImportResult)
}

// Config bounds an import run.
type Config struct {
	Currency      string
	LatestLimit   int      // default for ImportLatest
	PerBrandLimit int      // cap for each ListByBrand call
	PopularBrands []string // fixed priority list for ImportPopularBrands
	MaxFetches    int      // outbound calls in flight at once
}

// Service is the import orchestrator. All mutating operations share a
// single-flight guard: a second caller gets ErrRunInProgress instead of
// running concurrently against the same catalog keys.
type Service struct {
	store     Store
	providers []provider.Provider
	cfg       Config
	notifier  Notifier

	running chan struct{} // capacity 1
}

// New creates the import service. notifier may be nil.
func New(store Store, providers []provider.Provider, cfg Config, notifier Notifier) *Service {
	if cfg.LatestLimit <= 0 {
		cfg.LatestLimit = 20
	}
	if cfg.PerBrandLimit <= 0 {
		cfg.PerBrandLimit = 50
	}
	if cfg.MaxFetches <= 0 {
		cfg.MaxFetches = 3
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Service{
		store:     store,
		providers: providers,
		cfg:       cfg,
		notifier:  notifier,
		running:   make(chan struct{}, 1),
	}
}

func now() time.Time { return time.Now().UTC() }

// Status is the read-only aggregate the admin surface exposes. No network.
type Status struct {
	TotalBrands  int  `json:"total_brands"`
	TotalDevices int  `json:"total_devices"`
	Running      bool `json:"running"`
}

// Status reports catalog counts and whether a run holds the guard.
func (s *Service) Status(ctx context.Context) (Status, error) {
	brands, devices, err := s.store.Counts(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		TotalBrands:  brands,
		TotalDevices: devices,
		Running:      len(s.running) > 0,
	}, nil
}

// ImportBrands pulls the full brand list from the first responsive provider
// and upserts rows matched by slug. Brands absent from the new list survive.
func (s *Service) ImportBrands(ctx context.Context) (models.ImportResult, error) {
	return s.run(ctx, "brands", s.importBrands)
}

// ImportLatest pulls the most recent devices across all providers and
// reconciles each record. limit <= 0 uses the configured default.
func (s *Service) ImportLatest(ctx context.Context, limit int) (models.ImportResult, error) {
	if limit <= 0 {
		limit = s.cfg.LatestLimit
	}
	return s.run(ctx, "latest", func(ctx context.Context, res *models.ImportResult) error {
		raws := s.fetchAll(ctx, res, func(p provider.Provider) ([]provider.RawDevice, error) {
			return p.ListLatest(ctx, limit)
		})
		s.reconcileAll(ctx, res, raws)
		return nil
	})
}

// ImportPopularBrands refreshes the brand list first, then walks the fixed
// priority list of popular brands. Brand rows therefore exist before the
// device rows that reference them. One brand's failure moves on to the next.
func (s *Service) ImportPopularBrands(ctx context.Context) (models.ImportResult, error) {
	return s.run(ctx, "popular", func(ctx context.Context, res *models.ImportResult) error {
		if err := s.importBrands(ctx, res); err != nil {
			return err
		}

		authFailed := make(map[string]bool)
		for _, brand := range s.cfg.PopularBrands {
			raws := s.fetchFrom(ctx, res, authFailed, func(p provider.Provider) ([]provider.RawDevice, error) {
				return p.ListByBrand(ctx, brand, s.cfg.PerBrandLimit)
			})
			s.reconcileAll(ctx, res, raws)
		}
		return nil
	})
}

// SearchAndImport runs an ad hoc administrative import for a search query.
func (s *Service) SearchAndImport(ctx context.Context, query string, limit int) (models.ImportResult, error) {
	if limit <= 0 {
		limit = s.cfg.LatestLimit
	}
	return s.run(ctx, "search", func(ctx context.Context, res *models.ImportResult) error {
		raws := s.fetchAll(ctx, res, func(p provider.Provider) ([]provider.RawDevice, error) {
			return p.SearchByName(ctx, query, limit)
		})
		s.reconcileAll(ctx, res, raws)
		return nil
	})
}

// LoadRaw reconciles records that did not come from a live provider, such
// as CSV snapshots. Same guard, same merge rules: a CSV value never beats
// a live provider's value for a field both populated.
func (s *Service) LoadRaw(ctx context.Context, raws []provider.RawDevice) (models.ImportResult, error) {
	return s.run(ctx, "load", func(ctx context.Context, res *models.ImportResult) error {
		s.reconcileAll(ctx, res, raws)
		return nil
	})
}

// run wraps an operation with the single-flight guard, run bookkeeping,
// and lifecycle events.
func (s *Service) run(ctx context.Context, kind string, op func(context.Context, *models.ImportResult) error) (models.ImportResult, error) {
	select {
	case s.running <- struct{}{}:
	default:
		return models.ImportResult{}, pkgerrors.ErrRunInProgress
	}
	defer func() { <-s.running }()

	res := models.ImportResult{
		RunID:     uuid.NewString(),
		StartedAt: now(),
	}
	log.Info().Str("run_id", res.RunID).Str("kind", kind).Msg("import run started")
	if s.notifier != nil {
		s.notifier.RunStarted(res.RunID, kind)
	}

	err := op(ctx, &res)
	res.FinishedAt = now()

	if s.notifier != nil {
		s.notifier.RunFinished(res.RunID, kind, res)
	}
	log.Info().
		Str("run_id", res.RunID).
		Str("kind", kind).
		Int("processed", res.Processed).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("import run finished")

	return res, err
}

func (s *Service) importBrands(ctx context.Context, res *models.ImportResult) error {
	var brands []provider.RawBrand
	var lastErr error
	for _, p := range s.providers {
		var err error
		brands, err = p.ListBrands(ctx)
		if err == nil {
			break
		}
		lastErr = err
		res.AddError(err.Error())
		log.Warn().Err(err).Str("provider", p.Name()).Msg("brand listing failed, trying next provider")
	}
	if len(brands) == 0 && lastErr != nil {
		return nil // run completes with the errors already collected
	}

	for _, raw := range brands {
		res.Processed++
		b := models.Brand{Name: raw.Name, Slug: raw.Slug, Visible: true}
		existing, err := s.store.FindBrandBySlug(ctx, b.Slug)
		if err != nil {
			res.AddError(fmt.Sprintf("brand %s: %v", b.Slug, err))
			continue
		}
		if err := s.store.UpsertBrand(ctx, b); err != nil {
			res.AddError(fmt.Sprintf("brand %s: %v", b.Slug, err))
			continue
		}
		switch {
		case existing == nil:
			res.Inserted++
		case existing.Name != b.Name:
			res.Updated++
		default:
			res.Skipped++
		}
	}

	if err := s.store.RecomputeBrandCounts(ctx); err != nil {
		res.AddError(fmt.Sprintf("recompute brand counts: %v", err))
	}
	return nil
}

// fetchAll pulls from every provider once, bounded by MaxFetches.
func (s *Service) fetchAll(ctx context.Context, res *models.ImportResult, call func(provider.Provider) ([]provider.RawDevice, error)) []provider.RawDevice {
	return s.fetchFrom(ctx, res, make(map[string]bool), call)
}

// fetchFrom issues one call per non-skipped provider, at most MaxFetches in
// flight. An auth failure marks the provider skipped for the rest of the run;
// any other failure is recorded and the remaining providers proceed.
func (s *Service) fetchFrom(ctx context.Context, res *models.ImportResult, authFailed map[string]bool, call func(provider.Provider) ([]provider.RawDevice, error)) []provider.RawDevice {
	type fetched struct {
		name    string
		devices []provider.RawDevice
		err     error
	}

	sem := make(chan struct{}, s.cfg.MaxFetches)
	results := make([]fetched, len(s.providers))
	var wg sync.WaitGroup

	for i, p := range s.providers {
		if authFailed[p.Name()] {
			continue
		}
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			devices, err := call(p)
			results[i] = fetched{name: p.Name(), devices: devices, err: err}
		}(i, p)
	}
	wg.Wait()

	var out []provider.RawDevice
	for _, r := range results {
		if r.name == "" {
			continue
		}
		if r.err != nil {
			res.AddError(r.err.Error())
			if errors.Is(r.err, pkgerrors.ErrAuthFailed) {
				authFailed[r.name] = true
				log.Warn().Str("provider", r.name).Msg("auth failed, skipping provider for the rest of the run")
			}
			continue
		}
		out = append(out, r.devices...)
	}
	return out
}

// reconcileAll normalizes each raw record and reconciles it against the
// catalog. Field-scoped normalization gaps are logged, not counted as errors.
func (s *Service) reconcileAll(ctx context.Context, res *models.ImportResult, raws []provider.RawDevice) {
	for _, raw := range raws {
		res.Processed++

		candidate, err := normalize.Device(raw, normalize.Options{Currency: s.cfg.Currency})
		if err != nil && !errors.Is(err, pkgerrors.ErrIncomplete) {
			res.AddError(fmt.Sprintf("normalize %s %s: %v", raw.Brand, raw.Name, err))
			continue
		}
		if err != nil {
			log.Debug().Err(err).Str("identity_key", candidate.IdentityKey).Msg("record proceeds with field omitted")
		}

		outcome, err := s.reconcile(ctx, candidate)
		if err != nil {
			res.AddError(fmt.Sprintf("reconcile %s: %v", candidate.IdentityKey, err))
			continue
		}
		switch outcome {
		case OutcomeInserted:
			res.Inserted++
		case OutcomeUpdated:
			res.Updated++
		case OutcomeSkipped:
			res.Skipped++
		}
		if s.notifier != nil {
			s.notifier.DeviceReconciled(res.RunID, candidate, string(outcome))
		}
	}
}

// reconcile applies the insert-or-merge decision for one candidate.
// The read-then-write is a logical transaction: concurrent runs are excluded
// by the single-flight guard, not by store-level locking.
func (s *Service) reconcile(ctx context.Context, candidate models.Device) (Outcome, error) {
	if strings.TrimSpace(candidate.IdentityKey) == "" {
		return "", fmt.Errorf("empty identity key: %w", pkgerrors.ErrInvalidInput)
	}

	existing, err := s.store.FindByIdentityKey(ctx, candidate.IdentityKey)
	if err != nil {
		return "", err
	}

	if existing == nil {
		if err := s.store.UpsertDevice(ctx, candidate); err != nil {
			return "", err
		}
		return OutcomeInserted, nil
	}

	merged, changed := merge(*existing, candidate)
	if !changed {
		return OutcomeSkipped, nil
	}
	if err := s.store.UpsertDevice(ctx, merged); err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}
