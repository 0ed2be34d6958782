package server

import (
	"slices"
	"strings"
	"sync"

	"github.com/sunnuls/TPb-sub002/internal/game"
)

// PlayerStats is the tracked record of one player across hands.
type PlayerStats struct {
	Name             string  `json:"name"`
	Hands            int     `json:"hands"`
	HandsWon         int     `json:"handsWon"`
	VPIP             float64 `json:"vpip"`
	PFR              float64 `json:"pfr"`
	AggressionFactor float64 `json:"aggressionFactor"`
}

// PlayerTracker aggregates ledger statistics over completed hands, keyed by
// player name. Hands won are realized outcomes: fold-outs, and showdowns
// where every contesting hand was revealed. Showdowns with unknown cards
// count toward the other statistics but credit no winner.
type PlayerTracker struct {
	mu       sync.Mutex
	players  map[string]game.Stats
	recorded map[string]bool
}

// NewPlayerTracker constructs an empty tracker.
func NewPlayerTracker() *PlayerTracker {
	return &PlayerTracker{
		players:  make(map[string]game.Stats),
		recorded: make(map[string]bool),
	}
}

// Record adds a completed hand. Recording the same session twice, or a
// session that is not completed, is a no-op; it reports whether the hand
// was added.
func (t *PlayerTracker) Record(snap game.Snapshot) bool {
	if snap.State != game.StateCompleted {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recorded[snap.ID] {
		return false
	}
	t.recorded[snap.ID] = true

	settlement, settled := game.Settle(snap)
	for i, p := range snap.Players {
		stats := game.LedgerStats(snap.Ledger, i)
		if settled && slices.Contains(settlement.Winners, i) {
			stats.HandsWon = 1
		}
		t.players[p.Name] = t.players[p.Name].Add(stats)
	}
	return true
}

// Stats returns the record of one player.
func (t *PlayerTracker) Stats(name string) (PlayerStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, ok := t.players[name]
	if !ok {
		return PlayerStats{}, false
	}
	return playerStats(name, stats), true
}

// All returns every tracked player sorted by name.
func (t *PlayerTracker) All() []PlayerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := make([]PlayerStats, 0, len(t.players))
	for name, stats := range t.players {
		all = append(all, playerStats(name, stats))
	}
	slices.SortFunc(all, func(a, b PlayerStats) int { return strings.Compare(a.Name, b.Name) })
	return all
}

func playerStats(name string, s game.Stats) PlayerStats {
	return PlayerStats{
		Name:             name,
		Hands:            s.Hands,
		HandsWon:         s.HandsWon,
		VPIP:             s.VPIP(),
		PFR:              s.PFR(),
		AggressionFactor: s.AggressionFactor(),
	}
}
