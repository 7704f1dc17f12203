package governance

import (
	"fmt"
	"strings"
)

// Tier is a contributor's reputation level. Tiers are ordered.
type Tier int

const (
	Recognized Tier = iota
	Silver
	Gold
	Platinum
	Founder
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{Recognized, Silver, Gold, Platinum, Founder}

// scoredTiers are the tiers reachable through points.
var scoredTiers = []Tier{Recognized, Silver, Gold, Platinum}

func (t Tier) String() string {
	switch t {
	case Recognized:
		return "recognized"
	case Silver:
		return "silver"
	case Gold:
		return "gold"
	case Platinum:
		return "platinum"
	case Founder:
		return "founder"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if t.String() == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// VotingPower is the vote weight multiplier of the tier, 1 through 5.
func (t Tier) VotingPower() uint64 {
	switch t {
	case Recognized:
		return 1
	case Silver:
		return 2
	case Gold:
		return 3
	case Platinum:
		return 4
	case Founder:
		return 5
	default:
		return 0
	}
}

// tierFor derives the tier from the founder flag and accumulated points.
func (p Params) tierFor(founder bool, points uint64) Tier {
	if founder {
		return Founder
	}
	tier := Recognized
	for _, t := range scoredTiers {
		if points >= p.TierThresholds[t] {
			tier = t
		}
	}
	return tier
}
