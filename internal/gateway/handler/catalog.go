package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"hrflow/internal/feature"
)

// FeatureCatalog is the read/write surface the review screen needs next
// to the wizard itself: the current feature list and the releases a sync
// commit can link to.
type FeatureCatalog interface {
	ListFeatures(ctx context.Context) ([]feature.Feature, error)
	ListReleases(ctx context.Context) ([]feature.Release, error)
	CreateRelease(ctx context.Context, rel feature.Release) (feature.Release, error)
}

type CatalogHandler struct {
	catalog FeatureCatalog
}

func NewCatalogHandler(catalog FeatureCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// HandleListFeatures serves GET /v1/features
func (h *CatalogHandler) HandleListFeatures(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListFeatures(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if list == nil {
		list = []feature.Feature{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": list})
}

// HandleListReleases serves GET /v1/releases
func (h *CatalogHandler) HandleListReleases(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListReleases(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if list == nil {
		list = []feature.Release{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"releases": list})
}

type createReleaseRequest struct {
	Name string `json:"name"`
}

// HandleCreateRelease serves POST /v1/releases
func (h *CatalogHandler) HandleCreateRelease(w http.ResponseWriter, r *http.Request) {
	var req createReleaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name is required"})
		return
	}
	rel, err := h.catalog.CreateRelease(r.Context(), feature.Release{ID: uuid.NewString(), Name: name})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}
