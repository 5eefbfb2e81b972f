package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestRIPEStatFetch(t *testing.T) {
	var gotPath, gotQuery, gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("resource")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"prefixes":[{"prefix":"198.51.100.0/24","timelines":[]},{"prefix":"2001:db8::/32"}]}}`))
	}))
	defer srv.Close()

	src := &RIPEStat{BaseURL: srv.URL, Client: srv.Client(), UserAgent: "ascache-test"}
	got, err := src.Fetch(context.Background(), 9009)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if want := []string{"198.51.100.0/24", "2001:db8::/32"}; !slices.Equal(got, want) {
		t.Fatalf("Fetch returned %v, want %v", got, want)
	}
	if gotPath != "/data/announced-prefixes/data.json" || gotQuery != "AS9009" {
		t.Fatalf("request went to %s?resource=%s", gotPath, gotQuery)
	}
	if gotAccept != "application/json" || gotUA != "ascache-test" {
		t.Fatalf("request headers Accept=%q User-Agent=%q", gotAccept, gotUA)
	}
}

func TestBGPViewFetch(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"ipv4_prefixes":[{"prefix":"198.51.100.0/25"},{"prefix":"198.51.100.128/25"}],"ipv6_prefixes":[{"prefix":"2001:db8::/33"}]}}`))
	}))
	defer srv.Close()

	src := &BGPView{BaseURL: srv.URL + "/", Client: srv.Client()}
	got, err := src.Fetch(context.Background(), 9009)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if want := []string{"198.51.100.0/25", "198.51.100.128/25", "2001:db8::/33"}; !slices.Equal(got, want) {
		t.Fatalf("Fetch returned %v, want %v", got, want)
	}
	if gotPath != "/asn/9009/prefixes" {
		t.Fatalf("request went to %s, want /asn/9009/prefixes", gotPath)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("User-Agent = %q, want default", gotUA)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantStatus: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", wantStatus: true},
		{name: "malformed json", status: http.StatusOK, body: `{"data":`},
		{name: "missing data", status: http.StatusOK, body: `{"status":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			for _, src := range Defaults(srv.Client(), srv.URL, srv.URL, "") {
				_, err := src.Fetch(context.Background(), 9009)
				if err == nil {
					t.Fatalf("%s: expected error, got nil", src.Name())
				}
				if tt.wantStatus && !errors.Is(err, ErrUnexpectedStatus) {
					t.Fatalf("%s: error %v does not wrap ErrUnexpectedStatus", src.Name(), err)
				}
				if tt.wantStatus && !strings.Contains(err.Error(), tt.body) {
					t.Fatalf("%s: error %v does not include response body", src.Name(), err)
				}
			}
		})
	}
}

func TestFetchHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	src := &RIPEStat{BaseURL: srv.URL, Client: srv.Client()}
	if _, err := src.Fetch(ctx, 9009); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Fetch returned %v, want context.DeadlineExceeded", err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient("")
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	if client.Timeout != defaultClientTimeout {
		t.Fatalf("client timeout = %s, want %s", client.Timeout, defaultClientTimeout)
	}

	if _, err := NewHTTPClient("socks5://127.0.0.1:1080"); err != nil {
		t.Fatalf("NewHTTPClient with socks5 proxy returned error: %v", err)
	}

	if _, err := NewHTTPClient("gopher://127.0.0.1:70"); err == nil {
		t.Fatal("expected error for unsupported proxy scheme, got nil")
	}
}
