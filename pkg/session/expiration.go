package session

import "time"

// ExpirationPolicy reports whether a session created at createdAt is expired at now.
type ExpirationPolicy func(createdAt time.Time, now time.Time) bool

// NeverExpire keeps every session valid until it is destroyed.
func NeverExpire(createdAt time.Time, now time.Time) bool {
	return false
}

// ExpireAfter expires sessions once now reaches createdAt + duration.
// A duration <= 0 disables expiration. A session without a creation time counts as expired.
func ExpireAfter(duration time.Duration) ExpirationPolicy {
	if duration <= 0 {
		return NeverExpire
	}

	return func(createdAt time.Time, now time.Time) bool {
		if createdAt.IsZero() {
			return true
		}
		return !now.Before(createdAt.Add(duration))
	}
}
