package rangecache

import "time"

const (
	statusOK          = "ok"
	statusUninitiated = "uninitiated"
)

// Metrics are in-process counters; they are not persisted.
type Metrics struct {
	RefreshCount int64      `json:"refreshCount"`
	ResetCount   int64      `json:"resetCount"`
	CacheHits    int64      `json:"cacheHits"`
	CacheMisses  int64      `json:"cacheMisses"`
	LastAccessed *time.Time `json:"lastAccessed"`
	LastReset    *time.Time `json:"lastReset"`
}

type Status struct {
	ASN              uint32     `json:"asn"`
	LastUpdated      *time.Time `json:"lastUpdated"`
	AgeInSeconds     *int64     `json:"ageInSeconds"`
	IsStale          bool       `json:"isStale"`
	LastError        *string    `json:"lastError"`
	Status           string     `json:"status"`
	IPv4Count        int        `json:"ipv4Count"`
	IPv6Count        int        `json:"ipv6Count"`
	UpdateInProgress bool       `json:"updateInProgress"`
	LastAttempt      *time.Time `json:"lastAttempt"`
	Metrics          Metrics    `json:"metrics"`
}

// GetStatus describes the current state. It never fetches.
func (c *Cache) GetStatus() Status {
	c.mu.Lock()
	state := c.current.Clone()
	metrics := c.metrics
	c.mu.Unlock()

	now := c.now()
	st := Status{
		ASN:              c.asn,
		LastUpdated:      state.LastUpdated,
		IsStale:          state.IsStale(now, c.ttl),
		LastError:        state.LastError,
		Status:           statusUninitiated,
		IPv4Count:        len(state.IPv4Ranges),
		IPv6Count:        len(state.IPv6Ranges),
		UpdateInProgress: state.UpdateInProgress,
		LastAttempt:      state.LastAttempt,
		Metrics:          metrics,
	}
	if age, ok := state.Age(now); ok {
		seconds := int64(age / time.Second)
		st.AgeInSeconds = &seconds
		st.Status = statusOK
	}
	return st
}
