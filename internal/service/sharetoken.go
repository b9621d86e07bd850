package service

import (
	"math/rand/v2"
	"strconv"
)

// generateShareToken builds a public link token by concatenating two base-36
// random fragments. This is deliberately not a cryptographically strong
// capability token: anyone who guesses the value gains read access to that
// one record, and nothing else.
func generateShareToken() string {
	return strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}
