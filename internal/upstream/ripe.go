package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const DefaultRIPEStatURL = "https://stat.ripe.net"

// RIPEStat reads the announced-prefixes data call of RIPEstat.
type RIPEStat struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

type ripeResponse struct {
	Data *struct {
		Prefixes []struct {
			Prefix string `json:"prefix"`
		} `json:"prefixes"`
	} `json:"data"`
}

func (r *RIPEStat) Name() string { return "ripestat" }

func (r *RIPEStat) Fetch(ctx context.Context, asn uint32) ([]string, error) {
	base := r.BaseURL
	if base == "" {
		base = DefaultRIPEStatURL
	}
	endpoint := fmt.Sprintf("%s/data/announced-prefixes/data.json?resource=AS%d", strings.TrimRight(base, "/"), asn)

	var payload ripeResponse
	if err := getJSON(ctx, r.Client, endpoint, r.UserAgent, &payload); err != nil {
		return nil, fmt.Errorf("ripestat AS%d: %w", asn, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("ripestat AS%d: response has no data object", asn)
	}

	out := make([]string, 0, len(payload.Data.Prefixes))
	for _, p := range payload.Data.Prefixes {
		out = append(out, p.Prefix)
	}
	return out, nil
}
