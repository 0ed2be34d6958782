// Package game tracks a single live Texas Hold'em hand as a strict state
// machine.
//
// The main type is Session. It is created from a Config, which posts the
// antes and blinds, and then only changes through RecordAction,
// UpdateBoard, UpdateHoleCards and Pause. Every command either commits
// completely or returns an error and leaves the session untouched.
//
// # Basic Usage
//
//	s, events, err := game.NewSession(game.Config{
//	    Players:    []game.PlayerConfig{{Name: "alice", Stack: 1000}, {Name: "bob", Stack: 1000}},
//	    SmallBlind: 5,
//	    BigBlind:   10,
//	}, quartz.NewReal())
//	events, err = s.RecordAction(0, game.Call, 0)  // small blind completes
//	events, err = s.RecordAction(1, game.Check, 0) // big blind closes preflop
//	events, err = s.UpdateBoard(poker.MustParseCards("Kh7h2c"), game.Flop)
//
// # Invariants
//
// After every committed command:
//   - the pot equals the sum of the ledger, forced bets included
//   - at most one player is to act, and that player can still bet
//   - the board holds 0, 3, 4 or 5 cards matching the street
//   - no card is visible twice across the board and known hole cards
//
// Commands return typed events instead of invoking callbacks; delivering
// them is the caller's job. Snapshots are deep copies and safe to share.
//
// Sessions are not safe for concurrent use.
package game
