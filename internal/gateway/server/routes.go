package server

import (
	"net/http"

	"hrflow/internal/gateway/handler"
	"hrflow/internal/gateway/middleware"
)

func NewMux(
	wizardHandler *handler.WizardHandler,
	catalogHandler *handler.CatalogHandler,
	eventsHandler *handler.EventsHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Wizard lifecycle
	mux.HandleFunc("POST /v1/wizards", wizardHandler.HandleOpen)
	mux.HandleFunc("GET /v1/wizards/{id}", wizardHandler.HandleView)
	mux.HandleFunc("POST /v1/wizards/{id}/document", wizardHandler.HandleUpload)
	mux.HandleFunc("POST /v1/wizards/{id}/analyze", wizardHandler.HandleAnalyze)
	mux.HandleFunc("POST /v1/wizards/{id}/selection", wizardHandler.HandleSelection)
	mux.HandleFunc("POST /v1/wizards/{id}/commit", wizardHandler.HandleCommit)
	mux.HandleFunc("POST /v1/wizards/{id}/reset", wizardHandler.HandleReset)
	mux.HandleFunc("DELETE /v1/wizards/{id}", wizardHandler.HandleClose)

	// Feature catalog
	mux.HandleFunc("GET /v1/features", catalogHandler.HandleListFeatures)
	mux.HandleFunc("GET /v1/releases", catalogHandler.HandleListReleases)
	mux.HandleFunc("POST /v1/releases", catalogHandler.HandleCreateRelease)

	// Progress stream
	mux.HandleFunc("GET /ws/wizards", eventsHandler.HandleEventsWS)

	return middleware.CORS(mux)
}
