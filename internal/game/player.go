package game

import (
	"github.com/sunnuls/TPb-sub002/poker"
)

// Player represents a player in a hand
type Player struct {
	Index     int          `json:"index"`
	Name      string       `json:"name"`
	Stack     int          `json:"stack"`
	Position  Position     `json:"position"`
	Bet       int          `json:"bet"`       // Current bet in this street
	Committed int          `json:"committed"` // Total put in this hand, antes and blinds included
	Folded    bool         `json:"folded"`
	AllIn     bool         `json:"allIn"`
	HoleCards []poker.Card `json:"holeCards,omitempty"`
}

// CanAct returns true if the player can still act
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn && p.Stack > 0
}

// HasHoleCards reports whether both hole cards are known.
func (p *Player) HasHoleCards() bool {
	return len(p.HoleCards) == 2
}

// Hole returns the hole cards as a mask, zero when unknown.
func (p *Player) Hole() poker.Hand {
	if !p.HasHoleCards() {
		return 0
	}
	return poker.NewHand(p.HoleCards...)
}

func (p Player) clone() Player {
	p.HoleCards = append([]poker.Card(nil), p.HoleCards...)
	if len(p.HoleCards) == 0 {
		p.HoleCards = nil
	}
	return p
}

// commit moves chips from the stack into the current street.
func (p *Player) commit(chips int) {
	p.Stack -= chips
	p.Bet += chips
	p.Committed += chips
	if p.Stack == 0 {
		p.AllIn = true
	}
}
