package featurestore

import (
	"context"
	"fmt"
	"strings"

	"hrflow/internal/feature"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS features (
  code TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  module TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  enabled BOOLEAN NOT NULL DEFAULT FALSE,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS releases (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS release_features (
  release_id TEXT NOT NULL REFERENCES releases (id),
  feature_code TEXT NOT NULL REFERENCES features (code),
  PRIMARY KEY (release_id, feature_code)
);
CREATE INDEX IF NOT EXISTS idx_features_module ON features (module);
`)
	})
	return s.schemaErr
}

func scanFeatureDB(row rowScanner) (feature.Feature, error) {
	var f feature.Feature
	err := row.Scan(&f.Code, &f.Name, &f.Module, &f.Description, &f.Enabled, &f.UpdatedAt)
	if err != nil {
		return feature.Feature{}, err
	}
	return normalizeFeature(f), nil
}

func (s *Store) listFeaturesDB(ctx context.Context) ([]feature.Feature, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, module, description, enabled, updated_at
FROM features ORDER BY module, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]feature.Feature, 0, 32)
	for rows.Next() {
		f, err := scanFeatureDB(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) getFeatureDB(ctx context.Context, code string) (feature.Feature, bool) {
	if err := s.ensureSchema(); err != nil {
		return feature.Feature{}, false
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return feature.Feature{}, false
	}
	row := s.db.QueryRowContext(ctx, `SELECT code, name, module, description, enabled, updated_at
FROM features WHERE code = $1`, code)
	f, err := scanFeatureDB(row)
	if err != nil {
		return feature.Feature{}, false
	}
	return f, true
}

func (s *Store) insertFeatureDB(ctx context.Context, f feature.Feature) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeFeature(f)
	if n.Code == "" {
		return fmt.Errorf("feature code is empty")
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO features (code, name, module, description, enabled, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (code) DO NOTHING`,
		n.Code, n.Name, n.Module, n.Description, n.Enabled)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("feature %s already exists", n.Code)
	}
	return nil
}

func (s *Store) updateFeatureDB(ctx context.Context, f feature.Feature) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeFeature(f)
	if n.Code == "" {
		return fmt.Errorf("feature code is empty")
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE features
SET name=$2, module=$3, description=$4, enabled=$5, updated_at=NOW()
WHERE code=$1`,
		n.Code, n.Name, n.Module, n.Description, n.Enabled)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("feature %s not found", n.Code)
	}
	return nil
}

func (s *Store) createReleaseDB(ctx context.Context, rel feature.Release) (feature.Release, error) {
	if err := s.ensureSchema(); err != nil {
		return feature.Release{}, err
	}
	n := normalizeRelease(rel)
	if n.ID == "" {
		return feature.Release{}, fmt.Errorf("release id is empty")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO releases (id, name, created_at) VALUES ($1,$2,$3)`,
		n.ID, n.Name, n.CreatedAt)
	if err != nil {
		return feature.Release{}, err
	}
	return n, nil
}

func (s *Store) listReleasesDB(ctx context.Context) ([]feature.Release, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at
FROM releases ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []feature.Release
	for rows.Next() {
		var r feature.Release
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) linkReleaseDB(ctx context.Context, releaseID, code string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	rel := strings.TrimSpace(releaseID)
	code = strings.TrimSpace(code)
	if rel == "" || code == "" {
		return fmt.Errorf("release id and feature code are required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO release_features (release_id, feature_code)
VALUES ($1,$2)
ON CONFLICT (release_id, feature_code) DO NOTHING`, rel, code)
	return err
}

func (s *Store) releaseFeaturesDB(ctx context.Context, releaseID string) ([]string, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT feature_code
FROM release_features WHERE release_id = $1 ORDER BY feature_code`, strings.TrimSpace(releaseID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}
