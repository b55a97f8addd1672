package gameserver

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// SeedSource supplies client seeds for mints and breedings whose caller did
// not pick one.
type SeedSource interface {
	Seed() (uint64, error)
}

// SeedFunc adapts a function to SeedSource.
type SeedFunc func() (uint64, error)

// Seed calls f.
func (f SeedFunc) Seed() (uint64, error) { return f() }

// CryptoSeeds draws seeds from crypto/rand.
type CryptoSeeds struct{}

// Seed returns 8 random bytes read little-endian.
//
// Postcondition: Returns an error only if the system entropy source fails.
func (CryptoSeeds) Seed() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("drawing seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
