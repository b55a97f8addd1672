// Package traits implements deterministic trait generation, inheritance, and
// rarity scoring for beasts.
package traits

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/zenbeasts/internal/game/entropy"
)

const (
	// Layers is the length of a trait vector.
	Layers = 10
	// Core is the number of mutable core traits at the front of the vector.
	Core = 4
	// MaxValue is the ceiling of a single trait.
	MaxValue = 255
	// MaxVariation bounds the per-trait deviation from the parent average when breeding.
	MaxVariation = 20
)

// Index names a core trait slot.
type Index uint8

const (
	Strength Index = iota
	Agility
	Wisdom
	Vitality
)

// String returns the trait name.
func (i Index) String() string {
	switch i {
	case Strength:
		return "strength"
	case Agility:
		return "agility"
	case Wisdom:
		return "wisdom"
	case Vitality:
		return "vitality"
	default:
		return "reserved"
	}
}

// Valid reports whether i addresses a core trait.
func (i Index) Valid() bool { return i < Core }

// Vector is the full trait layout of a beast. Indices 0-3 are the core
// traits; indices 4-9 are reserved and always zero.
type Vector [Layers]uint8

// ReservedClear reports whether every reserved index is zero.
func (v Vector) ReservedClear() bool {
	for i := Core; i < Layers; i++ {
		if v[i] != 0 {
			return false
		}
	}
	return true
}

// Generate derives the trait vector of a freshly minted beast.
//
// The digest input is creator || seed (LE) || context. The first four digest
// bytes become the core traits.
//
// Postcondition: reserved indices are zero; rarity == Rarity(traits).
func Generate(seed uint64, creator uuid.UUID, context []byte) (Vector, uint64) {
	d := entropy.New().UUID(creator).Uint64(seed).Bytes(context).Sum()

	var v Vector
	for i := 0; i < Core; i++ {
		v[i] = d.Byte(i)
	}
	return v, Rarity(v)
}

// Breed derives a child's trait vector from two parents.
//
// Each core trait is the floor average of the parents plus a variation in
// [-20, +20] drawn from keccak(seed LE || a || b), clamped to [0, 255].
//
// Postcondition: |child[i] - avg(a[i], b[i])| <= 20 for each core index;
// reserved indices are zero; rarity == Rarity(child).
func Breed(seed uint64, a, b Vector) (Vector, uint64) {
	d := entropy.New().Uint64(seed).Bytes(a[:]).Bytes(b[:]).Sum()

	var child Vector
	for i := 0; i < Core; i++ {
		avg := int16((uint16(a[i]) + uint16(b[i])) / 2)
		variation := int16(d.Byte(i)%41) - MaxVariation
		child[i] = uint8(clamp(avg+variation, 0, MaxValue))
	}
	return child, Rarity(child)
}

// Rarity returns the saturating sum of the core traits.
//
// Postcondition: never wraps.
func Rarity(v Vector) uint64 {
	return RarityFrom(0, v)
}

// RarityFrom adds the core traits of v to base with saturation at the uint64
// maximum.
func RarityFrom(base uint64, v Vector) uint64 {
	score := base
	for i := 0; i < Core; i++ {
		score = saturatingAdd(score, uint64(v[i]))
	}
	return score
}

func saturatingAdd(a, b uint64) uint64 {
	s := a + b
	if s < a {
		return ^uint64(0)
	}
	return s
}

func clamp(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
