package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const DefaultBGPViewURL = "https://api.bgpview.io"

// BGPView reads the per-family prefix lists of the BGPView API.
type BGPView struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

type bgpviewPrefix struct {
	Prefix string `json:"prefix"`
}

type bgpviewResponse struct {
	Data *struct {
		IPv4Prefixes []bgpviewPrefix `json:"ipv4_prefixes"`
		IPv6Prefixes []bgpviewPrefix `json:"ipv6_prefixes"`
	} `json:"data"`
}

func (b *BGPView) Name() string { return "bgpview" }

func (b *BGPView) Fetch(ctx context.Context, asn uint32) ([]string, error) {
	base := b.BaseURL
	if base == "" {
		base = DefaultBGPViewURL
	}
	endpoint := fmt.Sprintf("%s/asn/%d/prefixes", strings.TrimRight(base, "/"), asn)

	var payload bgpviewResponse
	if err := getJSON(ctx, b.Client, endpoint, b.UserAgent, &payload); err != nil {
		return nil, fmt.Errorf("bgpview AS%d: %w", asn, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("bgpview AS%d: response has no data object", asn)
	}

	out := make([]string, 0, len(payload.Data.IPv4Prefixes)+len(payload.Data.IPv6Prefixes))
	for _, p := range payload.Data.IPv4Prefixes {
		out = append(out, p.Prefix)
	}
	for _, p := range payload.Data.IPv6Prefixes {
		out = append(out, p.Prefix)
	}
	return out, nil
}
