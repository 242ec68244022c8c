package events

import (
	"time"

	"phonehub/pkg/models"
)

// Event is one import-run lifecycle message broadcast to watchers.
type Event struct {
	Type    string               `json:"type"` // "run.started", "device.reconciled", "run.finished"
	RunID   string               `json:"run_id"`
	Kind    string               `json:"kind,omitempty"` // "latest", "brands", "popular", "search"
	Device  string               `json:"device,omitempty"`
	Brand   string               `json:"brand,omitempty"`
	Outcome string               `json:"outcome,omitempty"` // "inserted", "updated", "skipped"
	Result  *models.ImportResult `json:"result,omitempty"`
	At      time.Time            `json:"at"`
}
