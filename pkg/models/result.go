package models

import "time"

// ImportResult aggregates the outcome of one import run. It is transient:
// surfaced to administrative callers, never persisted.
type ImportResult struct {
	RunID      string    `json:"run_id"`
	Processed  int       `json:"processed"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// AddError appends a non-fatal failure to the run's error list.
func (r *ImportResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Merge folds counts and errors from another result into this one.
func (r *ImportResult) Merge(other ImportResult) {
	r.Processed += other.Processed
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}
