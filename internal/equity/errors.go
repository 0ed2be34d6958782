package equity

import (
	"errors"
	"fmt"

	"github.com/sunnuls/TPb-sub002/poker"
)

var (
	// ErrTooFewHands is returned when a request holds fewer than two hands.
	ErrTooFewHands = errors.New("equity needs at least two hands")
	// ErrInvalidInput covers malformed requests: a hand that is neither
	// empty nor two cards, a board of any size but 0, 3, 4 or 5, an invalid
	// card, or not enough unseen cards to complete the deal.
	ErrInvalidInput = errors.New("invalid equity request")
)

// CardConflictError reports a card that appears more than once across the
// hands, the board and the dead cards of a request.
type CardConflictError struct {
	Card poker.Card
}

func (e *CardConflictError) Error() string {
	return fmt.Sprintf("card %s is used more than once", e.Card)
}

// Code returns the stable error code reported to callers.
func (e *CardConflictError) Code() string { return "card_conflict" }

// Code maps engine errors onto their stable codes. It returns "" for errors
// the engine does not own.
func Code(err error) string {
	var conflict *CardConflictError
	switch {
	case errors.As(err, &conflict):
		return conflict.Code()
	case errors.Is(err, ErrTooFewHands):
		return "too_few_hands"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_hand"
	}
	return ""
}
