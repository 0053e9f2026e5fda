package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter registers the scan, health and metrics routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	if h.debug {
		r.Use(loggingMiddleware)
	}

	scan := r.PathPrefix("/api/v1/scan").Subrouter()
	scan.HandleFunc("/detect-card", h.DetectCard).Methods(http.MethodPost, http.MethodOptions)
	scan.HandleFunc("/process", h.Process).Methods(http.MethodPost, http.MethodOptions)
	scan.HandleFunc("/overlay", h.Overlay).Methods(http.MethodPost, http.MethodOptions)
	scan.HandleFunc("/dxf", h.DXF).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/metrics", h.Metrics).Methods(http.MethodGet)
	return r
}

// corsMiddleware lets browser clients call the API and answers preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[DEBUG] %s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
