// Package provider contains one adapter per external phone-data source.
// Each source has its own wire format and auth scheme; adapters map
// responses into RawDevice, the weakly-typed carrier the normalizer consumes.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	pkgerrors "phonehub/pkg/errors"
)

// Provider is implemented by each external data source. All list operations
// return at most limit records, ordered as the source orders them.
//
// Input rules shared by every adapter: limit must be positive; an empty
// query/brand after trimming yields an empty result, not an error.
type Provider interface {
	Name() string
	SearchByName(ctx context.Context, query string, limit int) ([]RawDevice, error)
	ListLatest(ctx context.Context, limit int) ([]RawDevice, error)
	ListByBrand(ctx context.Context, brand string, limit int) ([]RawDevice, error)
	ListBrands(ctx context.Context) ([]RawBrand, error)
}

// RawDevice is a provider record before normalization. Fields are optional
// and free-form; no two providers guarantee the same set.
type RawDevice struct {
	Provider    string
	Name        string
	Brand       string
	Prices      map[string]float64 // currency code -> amount
	Processor   string
	RAM         string
	Storage     string
	Camera      string
	Battery     string
	Display     string
	SpecSheet   []RawSpecGroup // full spec sheet if the source has one
	Image       string         // primary image URL
	Gallery     []string
	ReleaseDate string
}

// RawSpecGroup is one category of a provider's full spec sheet.
type RawSpecGroup struct {
	Category string
	Specs    []RawSpec
}

// RawSpec is a single feature/value pair.
type RawSpec struct {
	Feature string
	Value   string
}

// RawBrand is a provider's brand listing entry.
type RawBrand struct {
	Name string
	Slug string
}

// checkLimit enforces the shared limit contract.
func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive: %w", pkgerrors.ErrInvalidInput)
	}
	return nil
}

// readError drains the body and builds a ProviderError for a non-2xx status.
func readError(provider, endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return pkgerrors.NewProviderError(provider, endpoint, resp.StatusCode,
		fmt.Errorf("%s", string(body)))
}
