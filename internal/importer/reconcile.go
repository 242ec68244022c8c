package importer

import (
	"phonehub/pkg/models"
)

// Outcome of reconciling one candidate against the catalog.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
)

// sourceConfidence ranks providers for field-level arbitration. specchaser
// carries full spec sheets so it outranks the flat feed; bulk CSV loads rank
// lowest and can only ever fill emptiness.
var sourceConfidence = map[string]int{
	"specchaser": 3,
	"mobilefeed": 2,
	"csv":        1,
}

func confidence(source string) int {
	if c, ok := sourceConfidence[source]; ok {
		return c
	}
	return 1
}

// merge folds a candidate into the existing catalog row, field by field.
// A field is overwritten only when the candidate supplies a non-empty value
// AND the existing value is empty or the candidate's source outranks the
// stored provenance for that field. On equal confidence the existing value
// wins: repeated identical runs are idempotent, and newer data only
// overrides emptiness, not disagreement.
func merge(existing, candidate models.Device) (models.Device, bool) {
	m := merger{out: existing}
	if m.out.Provenance == nil {
		m.out.Provenance = map[string]string{}
	}

	m.str("name", &m.out.Name, candidate.Name, candidate.Provenance)
	m.str("brand", &m.out.Brand, candidate.Brand, candidate.Provenance)
	m.str("ram", &m.out.ShortSpecs.RAM, candidate.ShortSpecs.RAM, candidate.Provenance)
	m.str("storage", &m.out.ShortSpecs.Storage, candidate.ShortSpecs.Storage, candidate.Provenance)
	m.str("camera", &m.out.ShortSpecs.Camera, candidate.ShortSpecs.Camera, candidate.Provenance)
	m.str("battery", &m.out.ShortSpecs.Battery, candidate.ShortSpecs.Battery, candidate.Provenance)
	m.str("display", &m.out.ShortSpecs.Display, candidate.ShortSpecs.Display, candidate.Provenance)
	m.str("processor", &m.out.ShortSpecs.Processor, candidate.ShortSpecs.Processor, candidate.Provenance)
	m.str("release_date", &m.out.ReleaseDate, candidate.ReleaseDate, candidate.Provenance)

	if m.out.Slug == "" && candidate.Slug != "" {
		m.out.Slug = candidate.Slug
		m.changed = true
	}

	// price: unknown counts as empty
	if candidate.HasPrice() {
		if !m.out.HasPrice() || m.outranks("price", candidate.Provenance) {
			if m.out.Price != candidate.Price {
				m.out.Price = candidate.Price
				m.changed = true
			}
			m.take("price", candidate.Provenance)
		}
	}

	// full spec sheet: the richest source wins; same richness keeps existing
	if len(candidate.Specs) > 0 {
		if len(m.out.Specs) == 0 ||
			len(candidate.Specs) > len(m.out.Specs) ||
			m.outranks("specifications", candidate.Provenance) {
			if !specsEqual(m.out.Specs, candidate.Specs) {
				m.out.Specs = candidate.Specs
				m.changed = true
			}
			m.take("specifications", candidate.Provenance)
		}
	}

	// images: set union, existing order (and primary) preserved
	for _, img := range candidate.Images {
		if !containsString(m.out.Images, img) {
			m.out.Images = append(m.out.Images, img)
			m.changed = true
			m.take("images", candidate.Provenance)
		}
	}

	return m.out, m.changed || m.provChanged
}

type merger struct {
	out         models.Device
	changed     bool
	provChanged bool
}

func (m *merger) str(field string, existing *string, candidate string, candProv map[string]string) {
	if candidate == "" {
		return
	}
	if *existing == "" || m.outranks(field, candProv) {
		if *existing != candidate {
			*existing = candidate
			m.changed = true
		}
		m.take(field, candProv)
	}
}

// outranks reports whether the candidate's source for the field carries
// strictly higher confidence than the stored provenance.
func (m *merger) outranks(field string, candProv map[string]string) bool {
	return confidence(candProv[field]) > confidence(m.out.Provenance[field])
}

func (m *merger) take(field string, candProv map[string]string) {
	if src := candProv[field]; src != "" && m.out.Provenance[field] != src {
		m.out.Provenance[field] = src
		m.provChanged = true
	}
}

func specsEqual(a, b []models.SpecGroup) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Category != b[i].Category || len(a[i].Specs) != len(b[i].Specs) {
			return false
		}
		for j := range a[i].Specs {
			if a[i].Specs[j] != b[i].Specs[j] {
				return false
			}
		}
	}
	return true
}

func containsString(slice []string, v string) bool {
	for _, x := range slice {
		if x == v {
			return true
		}
	}
	return false
}
