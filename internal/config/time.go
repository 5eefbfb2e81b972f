package config

import "time"

const (
	DefaultTTL          = time.Hour
	DefaultFetchTimeout = 10 * time.Second
)

type Timer struct {
	Days    uint32 `yaml:"days"`
	Hours   uint32 `yaml:"hours"`
	Minutes uint32 `yaml:"minutes"`
	Seconds uint32 `yaml:"seconds"`
}

func (t Timer) IsZero() bool {
	return t.Days == 0 && t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0
}

func CalculateMilliseconds(timer Timer) uint64 {
	return uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000
}

// CalculateBetweenTime converts timer to a duration of at least one second.
func CalculateBetweenTime(timer Timer) time.Duration {
	intervalMs := CalculateMilliseconds(timer)

	minInterval := uint64(1000)
	if intervalMs < minInterval {
		intervalMs = minInterval
	}

	return time.Duration(intervalMs) * time.Millisecond
}

func (c Config) CacheTTL() time.Duration {
	if c.TTL.IsZero() {
		return DefaultTTL
	}
	return CalculateBetweenTime(c.TTL)
}

func (c Config) SourceTimeout() time.Duration {
	if c.FetchTimeout.IsZero() {
		return DefaultFetchTimeout
	}
	return CalculateBetweenTime(c.FetchTimeout)
}

// WarmUpInterval is zero when the warm-up routine is disabled.
func (c Config) WarmUpInterval() time.Duration {
	if c.WarmInterval.IsZero() {
		return 0
	}
	return CalculateBetweenTime(c.WarmInterval)
}
