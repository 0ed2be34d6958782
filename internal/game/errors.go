package game

import (
	"errors"
	"fmt"

	"github.com/sunnuls/TPb-sub002/poker"
)

var (
	// ErrHandNotInProgress is returned for commands that need a live hand
	// when the session is completed, paused or between hands.
	ErrHandNotInProgress = errors.New("hand not in progress")
	// ErrUnknownPlayer is returned when a player index is out of range.
	ErrUnknownPlayer = errors.New("unknown player")
)

// Coded is implemented by errors that carry a stable code for callers.
type Coded interface {
	error
	Code() string
}

// Code returns the stable code of the first coded error in err's chain,
// mapping the package sentinels as well. Unknown errors return "".
func Code(err error) string {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	switch {
	case errors.Is(err, ErrHandNotInProgress):
		return "hand_not_in_progress"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	}
	return ""
}

// ConfigError rejects a session configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "invalid session config: " + e.Reason }

// Code returns "invalid_config".
func (e *ConfigError) Code() string { return "invalid_config" }

// WrongTurnError reports an action from a player who is not to act.
type WrongTurnError struct {
	Player int
	ToAct  int
}

func (e *WrongTurnError) Error() string {
	if e.ToAct < 0 {
		return fmt.Sprintf("player %d cannot act: betting round is closed", e.Player)
	}
	return fmt.Sprintf("player %d cannot act: player %d is to act", e.Player, e.ToAct)
}

// Code returns "wrong_turn".
func (e *WrongTurnError) Code() string { return "wrong_turn" }

// IllegalAmountError reports an action whose kind or amount is not allowed
// in the current betting state.
type IllegalAmountError struct {
	Kind   ActionKind
	Amount int
	Reason string
}

func (e *IllegalAmountError) Error() string {
	return fmt.Sprintf("illegal %s of %d: %s", e.Kind, e.Amount, e.Reason)
}

// Code returns "illegal_amount".
func (e *IllegalAmountError) Code() string { return "illegal_amount" }

// InvalidStreetTransitionError reports a board update that does not move
// the hand to the next street with the right number of cards.
type InvalidStreetTransitionError struct {
	From   Street
	To     Street
	Cards  int
	Reason string
}

func (e *InvalidStreetTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s with %d cards: %s", e.From, e.To, e.Cards, e.Reason)
}

// Code returns "invalid_street_transition".
func (e *InvalidStreetTransitionError) Code() string { return "invalid_street_transition" }

// DuplicateCardError reports a card already visible on the board or in
// another player's hole cards.
type DuplicateCardError struct {
	Card poker.Card
}

func (e *DuplicateCardError) Error() string {
	return fmt.Sprintf("card %s is already in play", e.Card)
}

// Code returns "duplicate_card".
func (e *DuplicateCardError) Code() string { return "duplicate_card" }

// ConsistencyError is raised when a command would leave the session in a
// state that breaks an invariant. The command is not committed.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string { return "consistency violation: " + e.Reason }

// Code returns "consistency_violation".
func (e *ConsistencyError) Code() string { return "consistency_violation" }
