package game

// Stats are the classic tracker counters for one player. A session yields
// the counters for a single hand; the server's PlayerTracker adds them up
// across hands.
type Stats struct {
	Hands      int `json:"hands"`
	VPIPHands  int `json:"vpipHands"`  // hands with chips put in voluntarily preflop
	PFRHands   int `json:"pfrHands"`   // hands with a preflop raise
	Aggressive int `json:"aggressive"` // bets and raises
	Passive    int `json:"passive"`    // calls
	HandsWon   int `json:"handsWon"`
}

// VPIP returns the share of hands the player voluntarily put chips in preflop.
func (s Stats) VPIP() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.VPIPHands) / float64(s.Hands)
}

// PFR returns the share of hands the player raised preflop.
func (s Stats) PFR() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.PFRHands) / float64(s.Hands)
}

// AggressionFactor is bets and raises divided by calls. With no calls it is
// the raw aggressive count.
func (s Stats) AggressionFactor() float64 {
	if s.Passive == 0 {
		return float64(s.Aggressive)
	}
	return float64(s.Aggressive) / float64(s.Passive)
}

// Add returns the sum of two counters.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Hands:      s.Hands + o.Hands,
		VPIPHands:  s.VPIPHands + o.VPIPHands,
		PFRHands:   s.PFRHands + o.PFRHands,
		Aggressive: s.Aggressive + o.Aggressive,
		Passive:    s.Passive + o.Passive,
		HandsWon:   s.HandsWon + o.HandsWon,
	}
}

// Stats derives the counters of player from the ledger of this hand.
// HandsWon stays zero; winning is decided by Settle once the hand is over.
func (s *Session) Stats(player int) (Stats, error) {
	if player < 0 || player >= len(s.snap.Players) {
		return Stats{}, ErrUnknownPlayer
	}
	return LedgerStats(s.snap.Ledger, player), nil
}

// LedgerStats derives the counters of player from a hand's ledger.
func LedgerStats(ledger []Action, player int) Stats {
	stats := Stats{Hands: 1}
	var vpip, pfr bool
	for _, a := range ledger {
		if a.Player != player || !a.Kind.Submittable() {
			continue
		}
		aggressive := a.Kind.Aggressive() || (a.Kind == AllIn && a.Raised)
		switch {
		case aggressive:
			stats.Aggressive++
		case a.Kind == Call || a.Kind == AllIn:
			stats.Passive++
		}
		if a.Street == Preflop && a.Kind.Voluntary() && a.Amount > 0 {
			vpip = true
			if aggressive {
				pfr = true
			}
		}
	}
	if vpip {
		stats.VPIPHands = 1
	}
	if pfr {
		stats.PFRHands = 1
	}
	return stats
}
