package server

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/charmbracelet/log"

	"ascache/internal/rangecache"
	"ascache/internal/upstream"
)

func newRegistryCache(registry *httptest.Server) (*rangecache.Cache, error) {
	return rangecache.New(context.Background(), rangecache.Options{
		ASN:      9009,
		Sources:  upstream.Defaults(registry.Client(), registry.URL, registry.URL, "ascache-test"),
		Renderer: rangecache.Renderer{Label: "AS9009", ListPrefix: "as9009"},
		Logger:   log.New(io.Discard),
	})
}
