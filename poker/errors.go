package poker

import "fmt"

// InvalidHandError reports a card set the evaluator cannot rank: the wrong
// number of cards, an invalid card, or the same card twice.
type InvalidHandError struct {
	Cards  []Card
	Reason string
}

func (e *InvalidHandError) Error() string {
	return fmt.Sprintf("invalid hand [%s]: %s", FormatCards(e.Cards), e.Reason)
}

// Code returns the stable error code reported to callers.
func (e *InvalidHandError) Code() string { return "invalid_hand" }
