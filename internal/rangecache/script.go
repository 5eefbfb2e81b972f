package rangecache

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"ascache/internal/cidr"
	"ascache/internal/domain"
)

// Renderer turns a CacheState into a RouterOS address-list script.
type Renderer struct {
	ASN        uint32
	Generator  string
	Label      string
	ListPrefix string
}

// Render is deterministic for a given state and generatedAt.
func (r Renderer) Render(state domain.CacheState, generatedAt time.Time) string {
	generator := r.Generator
	if generator == "" {
		generator = "RouterOS"
	}
	label := r.Label
	if label == "" {
		label = fmt.Sprintf("AS%d", r.ASN)
	}
	listPrefix := r.ListPrefix
	if listPrefix == "" {
		listPrefix = strings.ToLower(fmt.Sprintf("as%d", r.ASN))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s script for AS%d address ranges\n", generator, r.ASN)
	fmt.Fprintf(&b, "# Generated at: %s\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# IPv4 Ranges: %d\n", len(state.IPv4Ranges))
	fmt.Fprintf(&b, "# IPv6 Ranges: %d\n", len(state.IPv6Ranges))
	b.WriteString("\n")

	writeSection(&b, cidr.IPv4, "/ip firewall address-list", listPrefix+"-ipv4", label, state.IPv4Ranges)
	b.WriteString("\n")
	writeSection(&b, cidr.IPv6, "/ipv6 firewall address-list", listPrefix+"-ipv6", label, state.IPv6Ranges)

	return b.String()
}

func writeSection(b *strings.Builder, family cidr.Family, menu, list, label string, ranges []netip.Prefix) {
	fmt.Fprintf(b, "# %s address list setup\n", family)
	b.WriteString(menu + "\n")
	fmt.Fprintf(b, "remove [find list=%s]\n", list)
	if len(ranges) == 0 {
		fmt.Fprintf(b, "# No %s ranges found\n", family)
		return
	}
	for _, p := range ranges {
		fmt.Fprintf(b, "add address=%s list=%s comment=\"%s %s range\"\n", p, list, label, family)
	}
}
