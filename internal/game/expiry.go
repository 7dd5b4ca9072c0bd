// internal/game/expiry.go
//
// Expiry policy for silent players.
//
// A player counts as disconnected once their last contact is older than
// the TTL. The store sweeps expired players (and then empty games) before
// every public operation; this file only holds the decision itself.

package game

import "time"

// DefaultTTL is the maximum allowed silence before a player is purged.
const DefaultTTL = 30 * time.Second

// Expired reports whether a player whose last contact was at lastPing
// should be purged at time now.
func Expired(now, lastPing time.Time, ttl time.Duration) bool {
	return now.Sub(lastPing) > ttl
}
