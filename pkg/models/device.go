package models

// PriceUnknown marks a device whose price could not be resolved into the
// target currency from any source.
const PriceUnknown = -1

// Device is the normalized, canonical form of a phone entry used by the
// import pipeline and database layer.
//
// All external providers are mapped into this structure first,
// then we reconcile against the catalog from this representation.
type Device struct {
	IdentityKey string            `json:"identity_key"`           // normalized brand+name matching key
	Brand       string            `json:"brand"`                  // display brand, e.g. "Samsung"
	Name        string            `json:"name"`                   // display model name, e.g. "Galaxy S24"
	Slug        string            `json:"slug"`                   // URL-safe brand-name
	Price       float64           `json:"price"`                  // in the configured currency; PriceUnknown if unresolved
	ShortSpecs  ShortSpecs        `json:"short_specs"`            // compact summary strings
	Specs       []SpecGroup       `json:"specifications"`         // full spec sheet, category order preserved
	Images      []string          `json:"images,omitempty"`       // deduplicated, primary first
	ReleaseDate string            `json:"release_date,omitempty"` // ISO date or partial ("2024-03", "2024")
	Provenance  map[string]string `json:"provenance,omitempty"`   // field -> provider that supplied it
}

// ShortSpecs holds the compact headline strings shown on listing pages.
// Each field is either a normalized short string or empty.
type ShortSpecs struct {
	RAM       string `json:"ram,omitempty"`
	Storage   string `json:"storage,omitempty"`
	Camera    string `json:"camera,omitempty"`
	Battery   string `json:"battery,omitempty"`
	Display   string `json:"display,omitempty"`
	Processor string `json:"processor,omitempty"`
}

// SpecGroup is one category of the full spec sheet ("Display", "Platform", ...).
type SpecGroup struct {
	Category string      `json:"category"`
	Specs    []SpecEntry `json:"specs"`
}

// SpecEntry is one feature/value row inside a SpecGroup.
type SpecEntry struct {
	Feature string `json:"feature"`
	Value   string `json:"value"`
}

// HasPrice reports whether the device carries a resolved price.
func (d *Device) HasPrice() bool {
	return d.Price > 0
}
