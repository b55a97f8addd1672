package traits

// Tier is a rarity bracket.
type Tier int

const (
	Common Tier = iota
	Uncommon
	Rare
	Epic
	Legendary
)

// String returns the display label of the tier.
func (t Tier) String() string {
	switch t {
	case Common:
		return "Common"
	case Uncommon:
		return "Uncommon"
	case Rare:
		return "Rare"
	case Epic:
		return "Epic"
	case Legendary:
		return "Legendary"
	default:
		return "Unknown"
	}
}

// TierFor returns the highest tier whose threshold is <= score.
//
// thresholds holds the floors for Common..Legendary in ascending order. A
// score equal to a threshold belongs to that tier. Scores below thresholds[0]
// are still Common.
func TierFor(score uint64, thresholds [5]uint64) Tier {
	for t := Legendary; t > Common; t-- {
		if score >= thresholds[t] {
			return t
		}
	}
	return Common
}
