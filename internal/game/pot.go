package game

import "slices"

// Pot is a main or side pot.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"` // player indexes that can win this pot
	Cap      int   `json:"cap"`      // highest total commitment this pot covers
}

// SidePots splits the chips committed so far into a main pot and side pots.
// One pot is created for each distinct commitment level of a non-folded
// player; folded players contribute up to each level but are never
// eligible. Chips folded above the highest live level go to the last pot.
func SidePots(players []Player) []Pot {
	var levels []int
	for _, p := range players {
		if !p.Folded && p.Committed > 0 && !slices.Contains(levels, p.Committed) {
			levels = append(levels, p.Committed)
		}
	}
	slices.Sort(levels)

	pots := make([]Pot, 0, len(levels))
	previous := 0
	for _, level := range levels {
		pot := Pot{Cap: level}
		for _, p := range players {
			contribution := min(p.Committed, level) - previous
			if contribution > 0 {
				pot.Amount += contribution
			}
			if !p.Folded && p.Committed >= level {
				pot.Eligible = append(pot.Eligible, p.Index)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		previous = level
	}

	// Dead money folded above every live commitment.
	dead := 0
	for _, p := range players {
		if p.Committed > previous {
			dead += p.Committed - previous
		}
	}
	if dead > 0 {
		if len(pots) == 0 {
			return []Pot{{Amount: dead, Cap: previous}}
		}
		pots[len(pots)-1].Amount += dead
	}
	return pots
}
