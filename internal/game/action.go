package game

import (
	"fmt"
	"time"
)

// ActionKind is the closed set of ledger entries. Only Fold, Check, Call,
// Bet, Raise and AllIn can be submitted; the posting kinds are written by
// the session itself when the hand starts.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
	AllIn
	PostSmallBlind
	PostBigBlind
	PostAnte
)

var actionKindNames = [...]string{
	"fold", "check", "call", "bet", "raise", "all_in",
	"post_small_blind", "post_big_blind", "post_ante",
}

func (k ActionKind) String() string {
	if k < Fold || k > PostAnte {
		return fmt.Sprintf("action(%d)", int(k))
	}
	return actionKindNames[k]
}

// ParseActionKind parses a submittable action name.
func ParseActionKind(name string) (ActionKind, error) {
	for k := Fold; k <= AllIn; k++ {
		if actionKindNames[k] == name {
			return k, nil
		}
	}
	if name == "allin" {
		return AllIn, nil
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts every kind, posting kinds included, so ledgers
// decode; RecordAction still rejects the ones that cannot be submitted.
func (k *ActionKind) UnmarshalText(text []byte) error {
	for kind := Fold; kind <= PostAnte; kind++ {
		if actionKindNames[kind] == string(text) {
			*k = kind
			return nil
		}
	}
	parsed, err := ParseActionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Submittable reports whether callers may record this kind.
func (k ActionKind) Submittable() bool {
	return k >= Fold && k <= AllIn
}

// Voluntary reports whether the kind puts chips in by choice.
func (k ActionKind) Voluntary() bool {
	return k == Call || k == Bet || k == Raise || k == AllIn
}

// Aggressive reports whether the kind is a bet or raise. An all-in counts
// when it raised the street's highest bet, which the ledger records in
// Action.Raised.
func (k ActionKind) Aggressive() bool {
	return k == Bet || k == Raise
}

// Action is one immutable ledger entry.
type Action struct {
	Sequence      int        `json:"sequence"`
	Player        int        `json:"player"`
	Kind          ActionKind `json:"kind"`
	Amount        int        `json:"amount"`  // chips moved from stack to pot
	RaiseTo       int        `json:"raiseTo"` // player's street total after the action
	Raised        bool       `json:"raised"`  // the action increased the highest bet
	Street        Street     `json:"street"`
	PotAtAction   int        `json:"potAtAction"`
	StackAtAction int        `json:"stackAtAction"`
	Timestamp     time.Time  `json:"timestamp"`
}

func (a Action) String() string {
	switch a.Kind {
	case Fold, Check:
		return fmt.Sprintf("p%d %s", a.Player, a.Kind)
	case Bet, Raise:
		return fmt.Sprintf("p%d %s to %d", a.Player, a.Kind, a.RaiseTo)
	}
	return fmt.Sprintf("p%d %s %d", a.Player, a.Kind, a.Amount)
}
