package game

import "github.com/sunnuls/TPb-sub002/poker"

// Settlement is how the pot of a finished hand was split.
type Settlement struct {
	// Winnings holds the chips each player takes from the pot, by index.
	Winnings []int `json:"winnings"`
	// Winners lists the players who won at least one pot.
	Winners []int  `json:"winners"`
	Reason  string `json:"reason"`
}

// Settle splits the pot of a completed hand. A hand that ended with one
// player left pays that player everything. A showdown pays each pot to the
// best hand among its eligible players, which needs a full board and the
// hole cards of every player contesting a pot; otherwise ok is false.
// Odd chips go to the first winner left of the button.
func Settle(s Snapshot) (Settlement, bool) {
	settlement := Settlement{Winnings: make([]int, len(s.Players))}

	live := s.Live()
	if len(live) == 1 {
		settlement.Winnings[live[0]] = s.Pot
		settlement.Winners = live
		settlement.Reason = CompletedByFold
		return settlement, true
	}
	if len(s.Board) != River.BoardSize() {
		return Settlement{}, false
	}
	settlement.Reason = CompletedByShowdown

	board := s.BoardHand()
	for _, pot := range SidePots(s.Players) {
		winners := pot.Eligible
		if len(pot.Eligible) > 1 {
			best := poker.WorstHand
			winners = nil
			for _, i := range pot.Eligible {
				p := &s.Players[i]
				if !p.HasHoleCards() {
					return Settlement{}, false
				}
				rank := poker.Evaluate7Cards(p.Hole() | board)
				switch poker.CompareHands(rank, best) {
				case 1:
					best = rank
					winners = []int{i}
				case 0:
					winners = append(winners, i)
				}
			}
		}
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / len(winners)
		for _, i := range winners {
			settlement.Winnings[i] += share
		}
		odd := pot.Amount - share*len(winners)
		for seat := s.Button + 1; odd > 0; seat++ {
			i := seat % len(s.Players)
			for _, w := range winners {
				if w == i && odd > 0 {
					settlement.Winnings[i]++
					odd--
				}
			}
		}
	}

	for i, won := range settlement.Winnings {
		if won > 0 {
			settlement.Winners = append(settlement.Winners, i)
		}
	}
	return settlement, true
}
