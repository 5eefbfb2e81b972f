package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"

	"ascache/internal/rangecache"
)

const shutdownTimeout = 10 * time.Second

// CacheService is the part of the range cache the HTTP layer calls into.
type CacheService interface {
	GetScript(ctx context.Context) (string, error)
	GetStatus() rangecache.Status
	Reset(ctx context.Context) (rangecache.ResetResult, error)
	Lookup(addr netip.Addr) (netip.Prefix, bool)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, kind, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": kind, "message": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter wires the cache endpoints.
func NewRouter(cache CacheService) http.Handler {
	h := &cacheHandler{cache: cache}

	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "NotFound", "no such endpoint", http.StatusNotFound)
	})
	router.Route("/routeros", func(r chi.Router) {
		r.Get("/script", h.getScript)
		r.Get("/status", h.getStatus)
		r.Post("/reset", h.postReset)
		r.Get("/lookup/{ip}", h.getLookup)
	})
	router.Get("/version", getVersion)

	return enableCORS(router)
}

// OpenRoutes serves the API on port until ctx is cancelled.
func OpenRoutes(ctx context.Context, port int, cache CacheService) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(cache),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting ascache API", "port", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("Shutting down ascache API")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}
