package random

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Seed returns a crypto-quality seed for a math/rand generator. The shoe only
// needs a uniform permutation, but seeding it from the clock alone makes the
// shuffle order guessable; the clock is kept as a fallback when the entropy
// pool is unavailable.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}
