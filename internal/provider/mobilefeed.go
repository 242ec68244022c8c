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

	pkgerrors "phonehub/pkg/errors"
)

// Mobilefeed is a second source with a flat JSON shape: numerics arrive as
// strings, the API key travels as a query parameter, and there is no
// brand-scoped endpoint (ListByBrand is search under the hood).
type Mobilefeed struct {
	BaseURL string
	apiKey  string
	Client  *http.Client
}

// NewMobilefeed creates the adapter; a missing API key fails construction.
func NewMobilefeed(baseURL, apiKey string) (*Mobilefeed, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("mobilefeed: %w", pkgerrors.ErrAuthFailed)
	}
	return &Mobilefeed{
		BaseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (m *Mobilefeed) Name() string { return "mobilefeed" }

func (m *Mobilefeed) SearchByName(ctx context.Context, query string, limit int) ([]RawDevice, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return m.fetch(ctx, "/v1/phones", url.Values{"search": {query}}, limit)
}

func (m *Mobilefeed) ListLatest(ctx context.Context, limit int) ([]RawDevice, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return m.fetch(ctx, "/v1/phones", url.Values{"sort": {"newest"}}, limit)
}

func (m *Mobilefeed) ListByBrand(ctx context.Context, brand string, limit int) ([]RawDevice, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, nil
	}
	return m.fetch(ctx, "/v1/phones", url.Values{"search": {brand}}, limit)
}

func (m *Mobilefeed) ListBrands(ctx context.Context) ([]RawBrand, error) {
	u := m.BaseURL + "/v1/makers?key=" + url.QueryEscape(m.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mobilefeed: build request: %w", err)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewProviderError(m.Name(), "/v1/makers", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(m.Name(), "/v1/makers", resp)
	}

	var raw []struct {
		Maker string `json:"maker"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("mobilefeed: decode makers: %w", err)
	}

	brands := make([]RawBrand, 0, len(raw))
	for _, r := range raw {
		if r.Maker == "" {
			continue
		}
		brands = append(brands, RawBrand{Name: r.Maker, Slug: slugify(r.Maker)})
	}
	return brands, nil
}

// fetch calls the flat phones endpoint. Assumed response format:
//
//	[
//	  {
//	    "maker": "Xiaomi",
//	    "model": "14 Pro",
//	    "price_usd": "899.00",
//	    "cpu": "Snapdragon 8 Gen 3",
//	    "ram_gb": "12",
//	    "storage_gb": "512",
//	    "cam": "50MP+50MP+50MP triple camera with OIS",
//	    "battery_mah": "4880",
//	    "screen_in": "6.73",
//	    "img": "https://...",
//	    "launch": "2023-10"
//	  },
//	  ...
//	]
func (m *Mobilefeed) fetch(ctx context.Context, endpoint string, params url.Values, limit int) ([]RawDevice, error) {
	u, err := url.Parse(m.BaseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("mobilefeed: parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("key", m.apiKey)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("mobilefeed: build request: %w", err)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewProviderError(m.Name(), endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(m.Name(), endpoint, resp)
	}

	var raw []struct {
		Maker      string `json:"maker"`
		Model      string `json:"model"`
		PriceUSD   string `json:"price_usd"`
		PriceEUR   string `json:"price_eur"`
		CPU        string `json:"cpu"`
		RAMGB      string `json:"ram_gb"`
		StorageGB  string `json:"storage_gb"`
		Cam        string `json:"cam"`
		BatteryMAH string `json:"battery_mah"`
		ScreenIn   string `json:"screen_in"`
		Img        string `json:"img"`
		Launch     string `json:"launch"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("mobilefeed: decode: %w", err)
	}

	out := make([]RawDevice, 0, len(raw))
	for _, r := range raw {
		if r.Maker == "" || r.Model == "" {
			continue
		}

		prices := make(map[string]float64)
		if v, ok := parsePrice(r.PriceUSD); ok {
			prices["USD"] = v
		}
		if v, ok := parsePrice(r.PriceEUR); ok {
			prices["EUR"] = v
		}

		out = append(out, RawDevice{
			Provider:    m.Name(),
			Name:        r.Model,
			Brand:       r.Maker,
			Prices:      prices,
			Processor:   r.CPU,
			RAM:         suffixGB(r.RAMGB),
			Storage:     suffixGB(r.StorageGB),
			Camera:      r.Cam,
			Battery:     suffixUnit(r.BatteryMAH, "mAh"),
			Display:     suffixUnit(r.ScreenIn, "inches"),
			Image:       r.Img,
			ReleaseDate: r.Launch,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func suffixGB(s string) string {
	return suffixUnit(s, "GB")
}

func suffixUnit(s, unit string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return s + " " + unit
}
