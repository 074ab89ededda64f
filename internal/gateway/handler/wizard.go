package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"hrflow/internal/store/documents"
	"hrflow/internal/wizard"
)

const maxUploadBytes = 10 << 20

// WizardHandler serves the staged wizard endpoints.
type WizardHandler struct {
	manager   *wizard.Manager
	documents documents.Store
	logger    *zap.Logger
}

func NewWizardHandler(manager *wizard.Manager, docs documents.Store, logger *zap.Logger) *WizardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardHandler{manager: manager, documents: docs, logger: logger}
}

type openRequest struct {
	Variant string `json:"variant"`
}

// HandleOpen creates a session: POST /v1/wizards
func (h *WizardHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	s, err := h.manager.Open(wizard.Variant(strings.TrimSpace(req.Variant)))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	view, err := h.manager.ViewOf(s.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleView snapshots a session: GET /v1/wizards/{id}
func (h *WizardHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.ViewOf(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleUpload stores an agreement document and records it as the
// session's input: POST /v1/wizards/{id}/document (multipart form,
// field "file").
func (h *WizardHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "file field is required"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "read upload: " + err.Error()})
		return
	}

	key := documents.Key(id, header.Filename)
	if err := h.documents.Put(r.Context(), key, content); err != nil {
		h.logger.Error("store document failed", zap.String("wizard_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "store document: " + err.Error()})
		return
	}
	if err := h.manager.SetInput(id, wizard.Input{DocumentKey: key}); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("document uploaded",
		zap.String("wizard_id", id),
		zap.String("key", key),
		zap.Int("size", len(content)))
	view, err := h.manager.ViewOf(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type analyzeRequest struct {
	Scope string `json:"scope,omitempty"`
}

// HandleAnalyze starts the fetch/diff: POST /v1/wizards/{id}/analyze.
// The sync variant may carry an optional scope in the body.
func (h *WizardHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if scope := strings.TrimSpace(req.Scope); scope != "" {
		if err := h.manager.SetInput(id, wizard.Input{Scope: scope}); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := h.manager.Analyze(id); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.manager.ViewOf(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

type selectionRequest struct {
	Action   string   `json:"action"`
	Key      string   `json:"key,omitempty"`
	Keys     []string `json:"keys,omitempty"`
	Included bool     `json:"included"`
}

// HandleSelection edits the selection set: POST /v1/wizards/{id}/selection
func (h *WizardHandler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	var err error
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "toggle":
		err = h.manager.Toggle(id, req.Key)
	case "set":
		err = h.manager.SetMany(id, req.Keys, req.Included)
	case "select_all":
		err = h.manager.SelectAll(id)
	case "deselect_all":
		err = h.manager.DeselectAll(id)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("unsupported action %q", req.Action)})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.manager.ViewOf(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type commitRequest struct {
	ReleaseID string `json:"release_id,omitempty"`
}

// HandleCommit starts the commit: POST /v1/wizards/{id}/commit
func (h *WizardHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req commitRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := h.manager.Commit(id, req.ReleaseID); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.manager.ViewOf(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

// HandleReset rewinds to Idle: POST /v1/wizards/{id}/reset
func (h *WizardHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.manager.Reset(id); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.manager.ViewOf(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleClose destroys the session: DELETE /v1/wizards/{id}
func (h *WizardHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
