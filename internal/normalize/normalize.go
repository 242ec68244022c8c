// Package normalize converts raw provider records into the canonical device
// shape: stable identity keys, one target currency, compact spec strings,
// and a single ordered image list.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"phonehub/internal/provider"
	pkgerrors "phonehub/pkg/errors"
	"phonehub/pkg/models"
)

// Options controls normalization.
type Options struct {
	Currency string // target price currency, e.g. "USD"
}

// Device maps a raw provider record into the canonical shape. The only
// recoverable failure is an unresolvable price: the returned device is still
// complete apart from that field and the error satisfies
// errors.Is(err, pkgerrors.ErrIncomplete).
func Device(raw provider.RawDevice, opts Options) (models.Device, error) {
	d := models.Device{
		IdentityKey: IdentityKey(raw.Brand, raw.Name),
		Brand:       strings.TrimSpace(raw.Brand),
		Name:        strings.TrimSpace(raw.Name),
		Slug:        Slug(raw.Brand, raw.Name),
		Price:       models.PriceUnknown,
		ShortSpecs: models.ShortSpecs{
			RAM:       compactMemory(raw.RAM),
			Storage:   compactMemory(raw.Storage),
			Camera:    compactCamera(raw.Camera),
			Battery:   compactBattery(raw.Battery),
			Display:   compactDisplay(raw.Display),
			Processor: compactProcessor(raw.Processor),
		},
		Specs:       specSheet(raw.SpecSheet),
		Images:      collectImages(raw),
		ReleaseDate: releaseDate(raw.ReleaseDate),
		Provenance:  map[string]string{},
	}

	var err error
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if v, ok := raw.Prices[currency]; ok && v > 0 {
		d.Price = v
	} else {
		err = &pkgerrors.FieldError{Field: "price", Reason: "no " + currency + " value from " + raw.Provider}
	}

	for field, value := range map[string]string{
		"name":         d.Name,
		"brand":        d.Brand,
		"ram":          d.ShortSpecs.RAM,
		"storage":      d.ShortSpecs.Storage,
		"camera":       d.ShortSpecs.Camera,
		"battery":      d.ShortSpecs.Battery,
		"display":      d.ShortSpecs.Display,
		"processor":    d.ShortSpecs.Processor,
		"release_date": d.ReleaseDate,
	} {
		if value != "" {
			d.Provenance[field] = raw.Provider
		}
	}
	if d.HasPrice() {
		d.Provenance["price"] = raw.Provider
	}
	if len(d.Specs) > 0 {
		d.Provenance["specifications"] = raw.Provider
	}
	if len(d.Images) > 0 {
		d.Provenance["images"] = raw.Provider
	}

	return d, err
}

// IdentityKey derives the stable matching key from brand and model name:
// lowercase, punctuation treated as spaces, internal whitespace collapsed.
// Deterministic across runs and insensitive to spacing/punctuation variation.
func IdentityKey(brand, name string) string {
	return normalizeKey(brand + " " + name)
}

// normalizeKey converts a string to a canonical form: lowercase,
// remove non-letter/digit characters and compress spaces.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		// treat everything else as space separator
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Slug derives the URL-safe brand-name identifier.
func Slug(brand, name string) string {
	return strings.ReplaceAll(normalizeKey(brand+" "+name), " ", "-")
}

// BrandSlug derives the URL-safe identifier for a brand alone.
func BrandSlug(brand string) string {
	return strings.ReplaceAll(normalizeKey(brand), " ", "-")
}

func specSheet(raw []provider.RawSpecGroup) []models.SpecGroup {
	if len(raw) == 0 {
		return nil
	}
	out := make([]models.SpecGroup, 0, len(raw))
	for _, g := range raw {
		if g.Category == "" || len(g.Specs) == 0 {
			continue
		}
		group := models.SpecGroup{Category: g.Category}
		for _, s := range g.Specs {
			if s.Feature == "" || s.Value == "" {
				continue
			}
			group.Specs = append(group.Specs, models.SpecEntry{Feature: s.Feature, Value: s.Value})
		}
		if len(group.Specs) > 0 {
			out = append(out, group)
		}
	}
	return out
}

// releaseDate accepts an ISO date and falls back to the best partial form
// ("2024-03", "2024"). Unparseable input yields "".
func releaseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	for _, layout := range []string{"2006-01", "January 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01")
		}
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t.Format("2006")
	}
	return ""
}
