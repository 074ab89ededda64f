package featurestore

import (
	"strings"
	"time"

	"hrflow/internal/feature"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func normalizeFeature(f feature.Feature) feature.Feature {
	f.Code = strings.TrimSpace(f.Code)
	f.Name = strings.TrimSpace(f.Name)
	f.Module = strings.TrimSpace(f.Module)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

func normalizeRelease(r feature.Release) feature.Release {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}
