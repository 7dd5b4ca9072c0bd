// internal/game/ids.go
//
// Random identifier generation for games and players.
//
// Identifiers are short fixed-length alphanumeric strings drawn from
// crypto/rand. Collisions against the live id set are unlikely but real,
// so NewID retries until the candidate is free — callers must not assume
// first-try success.

package game

import (
	"crypto/rand"
	"math/big"
)

const (
	idLength  = 10
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewID generates a fresh identifier that is not already taken.
// taken reports whether a candidate id is in use; it is consulted on
// every attempt, so the caller decides the collision scope (all games,
// or players within one game).
func NewID(taken func(string) bool) string {
	for {
		id := randomString(idLength)
		if !taken(id) {
			return id
		}
	}
}

// randomString builds an n-char string over the id charset using crypto/rand.
func randomString(n int) string {
	max := big.NewInt(int64(len(idCharset)))
	b := make([]byte, n)
	for i := range b {
		nBig, _ := rand.Int(rand.Reader, max)
		b[i] = idCharset[nBig.Int64()]
	}
	return string(b)
}
