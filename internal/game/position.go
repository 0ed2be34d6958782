package game

// Position is one of the canonical seat names used by preflop charts.
type Position string

const (
	PositionUTG  Position = "UTG"
	PositionUTG1 Position = "UTG+1"
	PositionMP   Position = "MP"
	PositionHJ   Position = "HJ"
	PositionCO   Position = "CO"
	PositionBTN  Position = "BTN"
	PositionSB   Position = "SB"
	PositionBB   Position = "BB"
)

// earlySeats are assigned to seats between the big blind and the button,
// latest last.
var earlySeats = []Position{PositionUTG1, PositionMP, PositionHJ, PositionCO}

// smallBlindSeat returns the seat posting the small blind. Heads-up the
// button posts it.
func smallBlindSeat(players, button int) int {
	if players == 2 {
		return button
	}
	return (button + 1) % players
}

// bigBlindSeat returns the seat posting the big blind.
func bigBlindSeat(players, button int) int {
	return (smallBlindSeat(players, button) + 1) % players
}

// AssignPositions names every seat for a table of n players with the button
// at seat button. Heads-up the button is labelled BTN and posts the small
// blind. The first seat after the big blind is always UTG; the remaining
// seats before the button take the latest names of UTG+1, MP, HJ, CO. At
// nine and ten players the extra early seats are also UTG.
func AssignPositions(n, button int) []Position {
	positions := make([]Position, n)
	if n < 2 {
		return positions
	}
	positions[button] = PositionBTN
	if n == 2 {
		positions[(button+1)%n] = PositionBB
		return positions
	}
	positions[smallBlindSeat(n, button)] = PositionSB
	positions[bigBlindSeat(n, button)] = PositionBB

	middle := n - 3
	first := (button + 3) % n
	for i := range middle {
		seat := (first + i) % n
		// Seats counted back from the button.
		fromButton := middle - i
		switch {
		case i == 0:
			positions[seat] = PositionUTG
		case fromButton <= len(earlySeats):
			positions[seat] = earlySeats[len(earlySeats)-fromButton]
		default:
			positions[seat] = PositionUTG
		}
	}
	return positions
}
