// Package featurestore persists feature records and releases. It keeps
// a Postgres backend for deployments and a JSON file backend for local
// runs and tests; the facade picks one based on how the store was built.
package featurestore

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"hrflow/internal/feature"
)

const listCacheKey = "all"

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byCode   map[string]feature.Feature
	releases []feature.Release
	links    map[string][]string

	schemaOnce sync.Once
	schemaErr  error

	listCache *lru.Cache[string, []feature.Feature]
}

func New(path string) *Store {
	return &Store{
		path:   path,
		byCode: make(map[string]feature.Feature),
		links:  make(map[string][]string),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []feature.Feature](8)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, listCache: cache}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		if err := s.ensureSchema(); err != nil {
			return err
		}
		return s.db.PingContext(ctx)
	}
	s.ensureLoadedFile()
	return nil
}

func (s *Store) ListFeatures(ctx context.Context) ([]feature.Feature, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		if s.listCache != nil {
			if cached, ok := s.listCache.Get(listCacheKey); ok {
				return cached, nil
			}
		}
		out, err := s.listFeaturesDB(ctx)
		if err != nil {
			return nil, err
		}
		if s.listCache != nil {
			s.listCache.Add(listCacheKey, out)
		}
		return out, nil
	}
	return s.listFeaturesFile()
}

func (s *Store) GetFeature(ctx context.Context, code string) (feature.Feature, bool) {
	if s == nil {
		return feature.Feature{}, false
	}
	if s.db != nil {
		return s.getFeatureDB(ctx, code)
	}
	return s.getFeatureFile(code)
}

func (s *Store) InsertFeature(ctx context.Context, f feature.Feature) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		err := s.insertFeatureDB(ctx, f)
		if err == nil {
			s.InvalidateCache()
		}
		return err
	}
	return s.insertFeatureFile(f)
}

func (s *Store) UpdateFeature(ctx context.Context, f feature.Feature) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		err := s.updateFeatureDB(ctx, f)
		if err == nil {
			s.InvalidateCache()
		}
		return err
	}
	return s.updateFeatureFile(f)
}

func (s *Store) CreateRelease(ctx context.Context, rel feature.Release) (feature.Release, error) {
	if s == nil {
		return feature.Release{}, sql.ErrConnDone
	}
	if s.db != nil {
		return s.createReleaseDB(ctx, rel)
	}
	return s.createReleaseFile(rel)
}

func (s *Store) ListReleases(ctx context.Context) ([]feature.Release, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listReleasesDB(ctx)
	}
	return s.listReleasesFile()
}

func (s *Store) LinkRelease(ctx context.Context, releaseID, code string) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		return s.linkReleaseDB(ctx, releaseID, code)
	}
	return s.linkReleaseFile(releaseID, code)
}

func (s *Store) ReleaseFeatures(ctx context.Context, releaseID string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.releaseFeaturesDB(ctx, releaseID)
	}
	return s.releaseFeaturesFile(releaseID)
}

// InvalidateCache drops the cached feature list. Writes call it
// themselves; the wizard's post-commit hook calls it again so readers
// sharing this store never see a stale list after a sync run.
func (s *Store) InvalidateCache() {
	if s == nil || s.listCache == nil {
		return
	}
	s.listCache.Remove(listCacheKey)
}
