package upstream

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

const defaultClientTimeout = 30 * time.Second

// NewHTTPClient builds the client shared by all sources. proxyURL may be
// empty, or a socks5:// / socks5h:// URL that all registry traffic is
// dialed through.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("build proxy dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{Timeout: defaultClientTimeout, Transport: transport}, nil
}

// Defaults returns the two registries with the given client and overrides.
func Defaults(client *http.Client, ripeURL, bgpviewURL, userAgent string) []Source {
	return []Source{
		&RIPEStat{BaseURL: ripeURL, Client: client, UserAgent: userAgent},
		&BGPView{BaseURL: bgpviewURL, Client: client, UserAgent: userAgent},
	}
}
