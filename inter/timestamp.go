package inter

import (
	"time"
)

// Timestamp is a point in time expressed in nanoseconds since the Unix epoch.
// Every timestamped entity of the chain (accounts, transactions, blocks,
// positions, proposals) uses it so that ordering and hashing never depend on
// the local time zone or monotonic clock readings.
type Timestamp uint64

// FromTime converts a time.Time to a Timestamp. Times before the epoch clamp
// to zero.
func FromTime(t time.Time) Timestamp {
	ns := t.UnixNano()
	if ns < 0 {
		return 0
	}
	return Timestamp(ns)
}

// Time converts the Timestamp back to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

// Unix returns the number of whole seconds since the epoch.
func (t Timestamp) Unix() int64 {
	return int64(t) / int64(time.Second)
}

// Seconds returns the timestamp as fractional seconds, the format the
// external API reports timestamps in.
func (t Timestamp) Seconds() float64 {
	return float64(t) / float64(time.Second)
}

// Add returns the timestamp shifted by d.
func (t Timestamp) Add(d time.Duration) Timestamp {
	if d < 0 && Timestamp(-d) > t {
		return 0
	}
	return Timestamp(int64(t) + int64(d))
}

// Sub returns the duration t-u. It is negative when u is after t.
func (t Timestamp) Sub(u Timestamp) time.Duration {
	return time.Duration(int64(t) - int64(u))
}

// Before reports whether t is strictly before u.
func (t Timestamp) Before(u Timestamp) bool {
	return t < u
}
