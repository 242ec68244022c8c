package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	pkgerrors "phonehub/pkg/errors"
)

// Specchaser talks to the spec-chaser API: nested attribute payloads,
// API key in a header, a brand-scoped phone endpoint and a search endpoint.
type Specchaser struct {
	BaseURL string
	apiKey  string
	Client  *http.Client
}

// NewSpecchaser creates the adapter. A missing API key fails construction,
// not the first call.
func NewSpecchaser(baseURL, apiKey string) (*Specchaser, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("specchaser: %w", pkgerrors.ErrAuthFailed)
	}
	return &Specchaser{
		BaseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		Client:  &http.Client{Timeout: 12 * time.Second},
	}, nil
}

func (s *Specchaser) Name() string { return "specchaser" }

// scResponse is the list payload shared by the latest/search/brand endpoints.
type scResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Model    string             `json:"model"`
			Brand    string             `json:"brand"`
			Prices   map[string]float64 `json:"prices"` // {"USD": 999, "EUR": 949}
			Released string             `json:"released"`
			Summary  struct {
				Chipset string `json:"chipset"`
				RAM     string `json:"ram"`
				Storage string `json:"storage"`
				Camera  string `json:"camera"`
				Battery string `json:"battery"`
				Screen  string `json:"screen"`
			} `json:"summary"`
			SpecSheet []struct {
				Category string `json:"category"`
				Entries  []struct {
					Label string `json:"label"`
					Value string `json:"value"`
				} `json:"entries"`
			} `json:"spec_sheet"`
		} `json:"attributes"`
		Media struct {
			Cover   string   `json:"cover"`
			Gallery []string `json:"gallery"`
		} `json:"media"`
	} `json:"data"`
	Total int `json:"total"`
}

func (s *Specchaser) SearchByName(ctx context.Context, query string, limit int) ([]RawDevice, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.fetch(ctx, "/phones/search", url.Values{"q": {query}}, limit)
}

func (s *Specchaser) ListLatest(ctx context.Context, limit int) ([]RawDevice, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return s.fetch(ctx, "/phones/latest", nil, limit)
}

// ListByBrand uses the brand-scoped endpoint and falls back to name search
// when it is empty or unavailable, so callers see one capability.
func (s *Specchaser) ListByBrand(ctx context.Context, brand string, limit int) ([]RawDevice, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, nil
	}

	devices, err := s.fetch(ctx, "/brands/"+url.PathEscape(slugify(brand))+"/phones", nil, limit)
	if err == nil && len(devices) > 0 {
		return devices, nil
	}
	if err != nil {
		log.Debug().Err(err).Str("brand", brand).Msg("specchaser brand endpoint failed, falling back to search")
	}
	return s.SearchByName(ctx, brand, limit)
}

func (s *Specchaser) ListBrands(ctx context.Context) ([]RawBrand, error) {
	u := s.BaseURL + "/brands"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("specchaser: build request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewProviderError(s.Name(), "/brands", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(s.Name(), "/brands", resp)
	}

	var payload struct {
		Data []struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("specchaser: decode brands: %w", err)
	}

	brands := make([]RawBrand, 0, len(payload.Data))
	for _, b := range payload.Data {
		if b.Name == "" {
			continue
		}
		slug := b.Slug
		if slug == "" {
			slug = slugify(b.Name)
		}
		brands = append(brands, RawBrand{Name: b.Name, Slug: slug})
	}
	return brands, nil
}

func (s *Specchaser) fetch(ctx context.Context, endpoint string, params url.Values, limit int) ([]RawDevice, error) {
	u, err := url.Parse(s.BaseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("specchaser: parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("specchaser: build request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewProviderError(s.Name(), endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(s.Name(), endpoint, resp)
	}

	var sc scResponse
	if err := json.NewDecoder(resp.Body).Decode(&sc); err != nil {
		return nil, fmt.Errorf("specchaser: decode: %w", err)
	}

	out := make([]RawDevice, 0, len(sc.Data))
	for _, item := range sc.Data {
		attrs := item.Attributes
		if attrs.Model == "" || attrs.Brand == "" {
			continue
		}

		sheet := make([]RawSpecGroup, 0, len(attrs.SpecSheet))
		for _, group := range attrs.SpecSheet {
			g := RawSpecGroup{Category: group.Category}
			for _, e := range group.Entries {
				g.Specs = append(g.Specs, RawSpec{Feature: e.Label, Value: e.Value})
			}
			sheet = append(sheet, g)
		}

		out = append(out, RawDevice{
			Provider:    s.Name(),
			Name:        attrs.Model,
			Brand:       attrs.Brand,
			Prices:      attrs.Prices,
			Processor:   attrs.Summary.Chipset,
			RAM:         attrs.Summary.RAM,
			Storage:     attrs.Summary.Storage,
			Camera:      attrs.Summary.Camera,
			Battery:     attrs.Summary.Battery,
			Display:     attrs.Summary.Screen,
			SpecSheet:   sheet,
			Image:       item.Media.Cover,
			Gallery:     item.Media.Gallery,
			ReleaseDate: attrs.Released,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// slugify lowercases and dashes a display name for URL path use.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
