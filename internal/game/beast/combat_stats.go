package beast

import "github.com/cory-johannsen/zenbeasts/internal/game/gameerr"

// MaxEnergy is the energy ceiling.
const MaxEnergy = 100

// CombatStats is the combat state embedded in every beast.
//
// HP never exceeds the owning beast's MaxHP and Energy never exceeds MaxEnergy;
// the mutators below are the only code that writes either field.
type CombatStats struct {
	HP         uint16 `json:"hp" yaml:"hp"`
	Energy     uint8  `json:"energy" yaml:"energy"`
	Wins       uint32 `json:"wins" yaml:"wins"`
	Losses     uint32 `json:"losses" yaml:"losses"`
	LastCombat int64  `json:"last_combat" yaml:"last_combat"`
	InCombat   bool   `json:"in_combat" yaml:"in_combat"`
}

// Reset restores HP to maxHP and energy to MaxEnergy.
func (s *CombatStats) Reset(maxHP uint16) {
	s.HP = maxHP
	s.Energy = MaxEnergy
}

// Heal raises HP by amount, clamped to maxHP.
//
// Postcondition: HP <= maxHP. Returns the new HP.
func (s *CombatStats) Heal(amount, maxHP uint16) uint16 {
	hp := uint32(s.HP) + uint32(amount)
	if hp > uint32(maxHP) {
		hp = uint32(maxHP)
	}
	s.HP = uint16(hp)
	return s.HP
}

// Damage lowers HP by amount, flooring at zero.
//
// Postcondition: HP >= 0. Returns the new HP.
func (s *CombatStats) Damage(amount uint16) uint16 {
	if amount >= s.HP {
		s.HP = 0
	} else {
		s.HP -= amount
	}
	return s.HP
}

// Drain spends cost energy, flooring at zero. A beast with too little energy
// still acts.
//
// Postcondition: Returns the new energy.
func (s *CombatStats) Drain(cost uint8) uint8 {
	if cost >= s.Energy {
		s.Energy = 0
	} else {
		s.Energy -= cost
	}
	return s.Energy
}

// Enter marks the beast as fighting from now on.
func (s *CombatStats) Enter(now int64) {
	s.InCombat = true
	s.LastCombat = now
}

// Leave clears the in-combat flag.
func (s *CombatStats) Leave() {
	s.InCombat = false
}

// CheckRecord reports whether a win and a loss can still be counted.
func (s *CombatStats) CheckRecord(win bool) error {
	if win && s.Wins == ^uint32(0) {
		return gameerr.Wrap(gameerr.ErrOverflow, "wins")
	}
	if !win && s.Losses == ^uint32(0) {
		return gameerr.Wrap(gameerr.ErrOverflow, "losses")
	}
	return nil
}

// Record counts a win or a loss.
//
// Precondition: CheckRecord(win) returned nil.
func (s *CombatStats) Record(win bool) {
	if win {
		s.Wins++
	} else {
		s.Losses++
	}
}

// Validate checks HP and energy bounds.
func (s CombatStats) Validate(maxHP uint16) error {
	if s.HP > maxHP {
		return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "hp %d exceeds max %d", s.HP, maxHP)
	}
	if s.Energy > MaxEnergy {
		return gameerr.Wrap(gameerr.ErrInvalidConfiguration, "energy %d exceeds %d", s.Energy, MaxEnergy)
	}
	return nil
}
