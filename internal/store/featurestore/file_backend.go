package featurestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hrflow/internal/feature"
)

type fileDoc struct {
	Features []feature.Feature   `json:"features"`
	Releases []feature.Release   `json:"releases,omitempty"`
	Links    map[string][]string `json:"links,omitempty"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var doc fileDoc
		if err := json.Unmarshal(b, &doc); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, f := range doc.Features {
			n := normalizeFeature(f)
			if n.Code == "" {
				continue
			}
			s.byCode[n.Code] = n
		}
		s.releases = append(s.releases, doc.Releases...)
		for rel, codes := range doc.Links {
			s.links[rel] = append(s.links[rel], codes...)
		}
	})
}

func (s *Store) saveFileLocked() {
	doc := fileDoc{
		Features: make([]feature.Feature, 0, len(s.byCode)),
		Releases: s.releases,
		Links:    s.links,
	}
	for _, f := range s.byCode {
		doc.Features = append(doc.Features, f)
	}
	sort.Slice(doc.Features, func(i, j int) bool {
		return doc.Features[i].Code < doc.Features[j].Code
	})
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) listFeaturesFile() ([]feature.Feature, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]feature.Feature, 0, len(s.byCode))
	for _, f := range s.byCode {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *Store) getFeatureFile(code string) (feature.Feature, bool) {
	s.ensureLoadedFile()
	code = strings.TrimSpace(code)
	s.mu.RLock()
	f, ok := s.byCode[code]
	s.mu.RUnlock()
	return f, ok
}

func (s *Store) insertFeatureFile(f feature.Feature) error {
	s.ensureLoadedFile()
	n := normalizeFeature(f)
	if n.Code == "" {
		return fmt.Errorf("feature code is empty")
	}
	n.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCode[n.Code]; exists {
		return fmt.Errorf("feature %s already exists", n.Code)
	}
	s.byCode[n.Code] = n
	s.saveFileLocked()
	return nil
}

func (s *Store) updateFeatureFile(f feature.Feature) error {
	s.ensureLoadedFile()
	n := normalizeFeature(f)
	if n.Code == "" {
		return fmt.Errorf("feature code is empty")
	}
	n.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCode[n.Code]; !exists {
		return fmt.Errorf("feature %s not found", n.Code)
	}
	s.byCode[n.Code] = n
	s.saveFileLocked()
	return nil
}

func (s *Store) createReleaseFile(rel feature.Release) (feature.Release, error) {
	s.ensureLoadedFile()
	n := normalizeRelease(rel)
	if n.ID == "" {
		return feature.Release{}, fmt.Errorf("release id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.releases {
		if existing.ID == n.ID {
			return feature.Release{}, fmt.Errorf("release %s already exists", n.ID)
		}
	}
	s.releases = append(s.releases, n)
	s.saveFileLocked()
	return n, nil
}

func (s *Store) listReleasesFile() ([]feature.Release, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]feature.Release, len(s.releases))
	copy(out, s.releases)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) linkReleaseFile(releaseID, code string) error {
	s.ensureLoadedFile()
	rel := strings.TrimSpace(releaseID)
	code = strings.TrimSpace(code)
	if rel == "" || code == "" {
		return fmt.Errorf("release id and feature code are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.links[rel] {
		if existing == code {
			return nil
		}
	}
	s.links[rel] = append(s.links[rel], code)
	s.saveFileLocked()
	return nil
}

func (s *Store) releaseFeaturesFile(releaseID string) ([]string, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := s.links[strings.TrimSpace(releaseID)]
	out := make([]string, len(codes))
	copy(out, codes)
	sort.Strings(out)
	return out, nil
}
