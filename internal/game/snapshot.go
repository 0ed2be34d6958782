package game

import (
	"time"

	"github.com/sunnuls/TPb-sub002/poker"
)

// Snapshot is a deep copy of a session. Nothing in it aliases the session,
// so it can be handed to other goroutines.
type Snapshot struct {
	ID           string       `json:"id"`
	TableID      string       `json:"tableId"`
	State        State        `json:"state"`
	Street       Street       `json:"street"`
	Players      []Player     `json:"players"`
	Button       int          `json:"button"`
	SmallBlind   int          `json:"smallBlind"`
	BigBlind     int          `json:"bigBlind"`
	Ante         int          `json:"ante"`
	Pot          int          `json:"pot"`
	Board        []poker.Card `json:"board"`
	ToAct        int          `json:"toAct"`
	CurrentBet   int          `json:"currentBet"`
	BoardVersion int          `json:"boardVersion"`
	Ledger       []Action     `json:"ledger"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	players := make([]Player, len(s.Players))
	for i, p := range s.Players {
		players[i] = p.clone()
	}
	s.Players = players
	s.Board = append([]poker.Card{}, s.Board...)
	s.Ledger = append([]Action{}, s.Ledger...)
	return s
}

// Player returns the player at index i.
func (s Snapshot) Player(i int) (Player, bool) {
	if i < 0 || i >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[i], true
}

// ToCall returns the chips player i must add to match the highest bet,
// capped at the player's stack.
func (s Snapshot) ToCall(i int) int {
	p, ok := s.Player(i)
	if !ok || p.Folded {
		return 0
	}
	return max(0, min(s.CurrentBet-p.Bet, p.Stack))
}

// Live returns the indexes of players who have not folded.
func (s Snapshot) Live() []int {
	var live []int
	for i, p := range s.Players {
		if !p.Folded {
			live = append(live, i)
		}
	}
	return live
}

// CanActCount returns how many players can still bet.
func (s Snapshot) CanActCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].CanAct() {
			n++
		}
	}
	return n
}

// BoardHand returns the board as a mask.
func (s Snapshot) BoardHand() poker.Hand {
	return poker.NewHand(s.Board...)
}

// KnownCards returns every visible card: the board plus known hole cards.
func (s Snapshot) KnownCards() poker.Hand {
	known := s.BoardHand()
	for i := range s.Players {
		known |= s.Players[i].Hole()
	}
	return known
}

// LedgerTotal sums the chips recorded in the ledger.
func (s Snapshot) LedgerTotal() int {
	total := 0
	for _, a := range s.Ledger {
		total += a.Amount
	}
	return total
}

// PositionOf returns the seat name of player i.
func (s Snapshot) PositionOf(i int) Position {
	p, ok := s.Player(i)
	if !ok {
		return ""
	}
	return p.Position
}
