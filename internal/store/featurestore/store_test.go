package featurestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrflow/internal/feature"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "features.json"))
}

func TestInsertAndList(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	require.NoError(t, s.InsertFeature(ctx, feature.Feature{Code: "b.two", Name: "Two", Module: "b"}))
	require.NoError(t, s.InsertFeature(ctx, feature.Feature{Code: "a.one", Name: "One", Module: "a", Enabled: true}))

	list, err := s.ListFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.one", list[0].Code)
	assert.Equal(t, "b.two", list[1].Code)
	assert.False(t, list[0].UpdatedAt.IsZero())
}

func TestInsertDuplicateFails(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.InsertFeature(ctx, feature.Feature{Code: "x", Name: "X", Module: "m"}))
	err := s.InsertFeature(ctx, feature.Feature{Code: "x", Name: "X again", Module: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUpdateRequiresExisting(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	err := s.UpdateFeature(ctx, feature.Feature{Code: "ghost", Name: "G", Module: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, s.InsertFeature(ctx, feature.Feature{Code: "x", Name: "X", Module: "m"}))
	require.NoError(t, s.UpdateFeature(ctx, feature.Feature{Code: "x", Name: "X2", Module: "m", Enabled: true}))
	got, ok := s.GetFeature(ctx, "x")
	require.True(t, ok)
	assert.Equal(t, "X2", got.Name)
	assert.True(t, got.Enabled)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "features.json")

	s := New(path)
	require.NoError(t, s.InsertFeature(ctx, feature.Feature{Code: "keep.me", Name: "Keep", Module: "core"}))
	rel, err := s.CreateRelease(ctx, feature.Release{ID: "2026.09", Name: "September"})
	require.NoError(t, err)
	require.NoError(t, s.LinkRelease(ctx, rel.ID, "keep.me"))

	reopened := New(path)
	list, err := reopened.ListFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep.me", list[0].Code)

	rels, err := reopened.ListReleases(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	codes, err := reopened.ReleaseFeatures(ctx, "2026.09")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.me"}, codes)
}

func TestLinkReleaseIdempotent(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.InsertFeature(ctx, feature.Feature{Code: "x", Name: "X", Module: "m"}))
	_, err := s.CreateRelease(ctx, feature.Release{ID: "r1", Name: "R1"})
	require.NoError(t, err)
	require.NoError(t, s.LinkRelease(ctx, "r1", "x"))
	require.NoError(t, s.LinkRelease(ctx, "r1", "x"))
	codes, err := s.ReleaseFeatures(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, codes)
}

func TestPingFileBackend(t *testing.T) {
	s := tempStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	assert.Error(t, s.Ping(context.Background()))
	assert.Error(t, s.InsertFeature(context.Background(), feature.Feature{Code: "x"}))
	list, err := s.ListFeatures(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, list)
	s.InvalidateCache()
}
