package domain

import (
	"net/netip"
	"slices"
	"time"
)

// CacheState is the persisted snapshot of one AS range cache.
type CacheState struct {
	IPv4Ranges       []netip.Prefix `json:"ipv4Ranges"`
	IPv6Ranges       []netip.Prefix `json:"ipv6Ranges"`
	LastUpdated      *time.Time     `json:"lastUpdated,omitempty"`
	LastError        *string        `json:"lastError,omitempty"`
	UpdateInProgress bool           `json:"updateInProgress"`
	LastAttempt      *time.Time     `json:"lastAttempt,omitempty"`
}

// IsEmpty reports whether the state never saw a successful refresh.
func (s CacheState) IsEmpty() bool {
	return s.LastUpdated == nil
}

// HasRanges reports whether at least one family holds a prefix.
func (s CacheState) HasRanges() bool {
	return len(s.IPv4Ranges) > 0 || len(s.IPv6Ranges) > 0
}

// Age is the time since the last successful refresh. ok is false for an empty state.
func (s CacheState) Age(now time.Time) (age time.Duration, ok bool) {
	if s.LastUpdated == nil {
		return 0, false
	}
	age = now.Sub(*s.LastUpdated)
	if age < 0 {
		age = 0
	}
	return age, true
}

// IsStale is true when the state is empty or at least ttl old.
func (s CacheState) IsStale(now time.Time, ttl time.Duration) bool {
	age, ok := s.Age(now)
	return !ok || age >= ttl
}

// Clone returns a deep copy so callers can read it without holding the owner's lock.
func (s CacheState) Clone() CacheState {
	out := s
	out.IPv4Ranges = slices.Clone(s.IPv4Ranges)
	out.IPv6Ranges = slices.Clone(s.IPv6Ranges)
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	if s.LastAttempt != nil {
		t := *s.LastAttempt
		out.LastAttempt = &t
	}
	return out
}
