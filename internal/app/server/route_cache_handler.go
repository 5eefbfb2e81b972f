package server

import (
	"errors"
	"net/http"
	"net/netip"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"

	"ascache/internal/rangecache"
)

type cacheHandler struct {
	cache CacheService
}

type lookupResponse struct {
	IP      string `json:"ip"`
	Covered bool   `json:"covered"`
	Prefix  string `json:"prefix,omitempty"`
}

func (h *cacheHandler) getScript(w http.ResponseWriter, r *http.Request) {
	script, err := h.cache.GetScript(r.Context())
	if err != nil {
		if errors.Is(err, rangecache.ErrNoData) {
			writeError(w, "NoData", err.Error(), http.StatusServiceUnavailable)
			return
		}
		log.Error("script request failed", "error", err)
		writeError(w, "ScriptError", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(script))
}

func (h *cacheHandler) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.GetStatus())
}

func (h *cacheHandler) postReset(w http.ResponseWriter, r *http.Request) {
	result, err := h.cache.Reset(r.Context())
	if err != nil {
		log.Warn("reset request aborted", "error", err)
		writeJSON(w, http.StatusGatewayTimeout, result)
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusBadGateway, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *cacheHandler) getLookup(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "ip")
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		writeError(w, "InvalidAddress", "not an IP address: "+raw, http.StatusBadRequest)
		return
	}

	resp := lookupResponse{IP: addr.String()}
	if prefix, ok := h.cache.Lookup(addr); ok {
		resp.Covered = true
		resp.Prefix = prefix.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
