package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"hrflow/internal/wizard"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps wizard sentinels onto HTTP statuses: unknown sessions
// are 404, illegal transitions 409, bad requests 400.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, wizard.ErrUnknownSession):
		status = http.StatusNotFound
	case errors.Is(err, wizard.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, wizard.ErrNoInput),
		errors.Is(err, wizard.ErrEmptySelection):
		status = http.StatusBadRequest
	case errors.Is(err, wizard.ErrSessionClosed):
		status = http.StatusGone
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
