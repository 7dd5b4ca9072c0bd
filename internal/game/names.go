// internal/game/names.go
//
// Display-name allocation for new players.
//
// Names come from a small fixed pool, picked uniformly at random among
// the ones not already in use in the room. The pool size is therefore a
// hard cap on simultaneous players per game; hitting it is reported as
// ErrNamesExhausted rather than retried.

package game

import (
	"crypto/rand"
	"math/big"
)

// namePool is the fixed set of candidate display names.
var namePool = []string{
	"Batta", "Oda", "Zoio", "Asp", "Sassaki", "BT", "Mauro", "Sherman",
	"Dual", "Baron", "Nic", "Kurka", "Camila", "Murilo", "Julio", "Danilo",
}

// MaxPlayersPerGame is the room-size cap implied by the name pool.
const MaxPlayersPerGame = 16

// AllocateName picks a random name from the pool excluding taken ones.
// Returns ErrNamesExhausted when every candidate is in use.
func AllocateName(taken map[string]struct{}) (string, error) {
	available := make([]string, 0, len(namePool))
	for _, n := range namePool {
		if _, used := taken[n]; !used {
			available = append(available, n)
		}
	}
	if len(available) == 0 {
		return "", ErrNamesExhausted
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(available))))
	return available[nBig.Int64()], nil
}
