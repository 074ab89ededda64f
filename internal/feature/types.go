package feature

import "time"

// Feature is a stored feature-registry record. Code is the natural key.
type Feature struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Module      string    `json:"module"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Equivalent reports whether two records carry the same registry-managed
// fields. UpdatedAt is bookkeeping and does not participate.
func (f Feature) Equivalent(other Feature) bool {
	return f.Code == other.Code &&
		f.Name == other.Name &&
		f.Module == other.Module &&
		f.Description == other.Description &&
		f.Enabled == other.Enabled
}

// Release groups synced features for rollout tracking.
type Release struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
