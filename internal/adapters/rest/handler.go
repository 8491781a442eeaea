package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ttuhina/MuseMe/internal/core/services"
)

const (
	healthPath   = "/api/health"
	searchPrefix = "/api/search/"
)

// Handler manages the HTTP interface for the gateway.
type Handler struct {
	svc    *services.Aggregator // Dependency on the Core Service
	assets http.Handler         // Fallback for everything outside /api
	logger logrus.FieldLogger
	router *mux.Router
}

// NewHandler initializes the HTTP adapter and sets up routes. A nil assets
// handler answers 404 for every non-API path.
func NewHandler(svc *services.Aggregator, assets http.Handler, logger logrus.FieldLogger) *Handler {
	if assets == nil {
		assets = http.HandlerFunc(fileNotFound)
	}
	h := &Handler{
		svc:    svc,
		assets: assets,
		logger: logger,
		// Path cleaning is left to the static responder so traversal
		// attempts are rejected rather than redirected.
		router: mux.NewRouter().SkipClean(true),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
// It acts as a proxy, passing the request to our internal router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.Use(
		h.requestID,
		h.accessLog,
		h.recoverPanic,
		cors,
	)

	// Health Check
	h.router.HandleFunc(healthPath, h.HealthCheck)
	// Aggregated lookup
	h.router.PathPrefix(searchPrefix).HandlerFunc(h.Search)
	// Static assets
	h.router.PathPrefix("/").Handler(h.assets)
}

func fileNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("File not found"))
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK", Message: "Server is running"})
}
