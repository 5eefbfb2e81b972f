package cidr

import (
	"net/netip"
	"slices"
	"strings"

	"go4.org/netipx"
)

// ParseAll parses raw prefix strings and splits them by family. Malformed
// entries are skipped and returned in dropped. Host bits are cleared.
func ParseAll(raw []string) (v4, v6 []netip.Prefix, dropped []string) {
	for _, s := range raw {
		p, err := netip.ParsePrefix(strings.TrimSpace(s))
		if err != nil {
			dropped = append(dropped, s)
			continue
		}
		p = p.Masked()
		if FamilyOf(p) == IPv4 {
			v4 = append(v4, p)
		} else {
			v6 = append(v6, p)
		}
	}
	return v4, v6, dropped
}

// Aggregate returns the minimal set of prefixes covering exactly the
// addresses of the given prefixes of one family. Entries of the other
// family and invalid prefixes are dropped. The result is sorted by
// network address, then prefix length.
func Aggregate(prefixes []netip.Prefix, family Family) []netip.Prefix {
	work := make([]netip.Prefix, 0, len(prefixes))
	for _, p := range prefixes {
		if !p.IsValid() || FamilyOf(p) != family {
			continue
		}
		work = append(work, p.Masked())
	}
	if len(work) == 0 {
		return []netip.Prefix{}
	}

	slices.SortFunc(work, Compare)

	// Drop duplicates and prefixes contained in an earlier one. With the
	// sort order above a contained prefix always follows its container,
	// and the kept prefixes never overlap, so only the last kept entry
	// needs checking.
	kept := work[:0]
	for _, p := range work {
		if n := len(kept); n > 0 && kept[n-1].Overlaps(p) {
			continue
		}
		kept = append(kept, p)
	}

	// Merge sibling blocks bottom up. A merged parent may itself pair with
	// the entry below it on the stack, hence the loop.
	out := make([]netip.Prefix, 0, len(kept))
	for _, p := range kept {
		out = append(out, p)
		for len(out) >= 2 {
			parent, ok := mergeSiblings(out[len(out)-2], out[len(out)-1])
			if !ok {
				break
			}
			out = out[:len(out)-2]
			out = append(out, parent)
		}
	}
	return out
}

// Compare orders prefixes by network address, then by prefix length
// (shorter first).
func Compare(a, b netip.Prefix) int {
	if c := a.Addr().Compare(b.Addr()); c != 0 {
		return c
	}
	return a.Bits() - b.Bits()
}

// mergeSiblings returns the common supernet of lo and hi when they are the
// two halves of it, lo being the lower half.
func mergeSiblings(lo, hi netip.Prefix) (netip.Prefix, bool) {
	bits := lo.Bits()
	if bits == 0 || bits != hi.Bits() {
		return netip.Prefix{}, false
	}
	parent := netip.PrefixFrom(lo.Addr(), bits-1).Masked()
	if parent.Addr() != lo.Addr() {
		return netip.Prefix{}, false
	}
	next := netipx.PrefixLastIP(lo).Next()
	if !next.IsValid() || next != hi.Addr() {
		return netip.Prefix{}, false
	}
	return parent, true
}

// Strings renders prefixes in canonical CIDR form.
func Strings(prefixes []netip.Prefix) []string {
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p.String()
	}
	return out
}
