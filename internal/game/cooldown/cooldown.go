// Package cooldown answers time-gate questions for beast actions.
//
// Every function is a pure predicate over (last, now, cooldown) in seconds.
// Nothing here mutates state; callers turn a false answer into the matching
// cooldown error.
package cooldown

import "math"

// Elapsed returns now - last.
//
// Postcondition: Returns 0 when last is in the future or the subtraction
// would overflow.
func Elapsed(now, last int64) int64 {
	if last > now {
		return 0
	}
	d := now - last
	if d < 0 {
		return 0
	}
	return d
}

// CanAct reports whether at least cooldown seconds have passed since last.
// A beast that has never acted (last == 0) is always eligible.
//
// Postcondition: CanAct(last+cooldown, last, cooldown) is true;
// CanAct(last+cooldown-1, last, cooldown) is false for cooldown > 0.
func CanAct(now, last, cooldown int64) bool {
	if last == 0 {
		return true
	}
	if last > now {
		return false
	}
	return Elapsed(now, last) >= cooldown
}

// EndTime returns the instant the cooldown expires, saturating at MaxInt64.
func EndTime(last, cooldown int64) int64 {
	return saturatingAdd(last, cooldown)
}

// Remaining returns the seconds left until the cooldown expires.
//
// Postcondition: Returns a value >= 0. Returns 0 for a beast that has never
// acted.
func Remaining(now, last, cooldown int64) int64 {
	if last == 0 {
		return 0
	}
	r := saturatingSub(EndTime(last, cooldown), now)
	if r < 0 {
		return 0
	}
	return r
}

// CanEnterCombat reports whether a beast may join a new combat session: it is
// not already fighting and the combat cooldown has elapsed.
func CanEnterCombat(now, lastCombat, cooldown int64, inCombat bool) bool {
	return !inCombat && CanAct(now, lastCombat, cooldown)
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

func saturatingSub(a, b int64) int64 {
	if b < 0 && a > math.MaxInt64+b {
		return math.MaxInt64
	}
	if b > 0 && a < math.MinInt64+b {
		return math.MinInt64
	}
	return a - b
}
