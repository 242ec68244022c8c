package models

// Brand is a phone manufacturer row in the catalog.
//
// PhoneCount is derived: it is recomputed from device rows grouped by brand
// and is never mutated directly by the import pipeline.
type Brand struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Visible    bool   `json:"visible"`
	PhoneCount int    `json:"phone_count"`
}
