package game

import "fmt"

// Street represents the betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

func (s Street) String() string {
	if s < Preflop || s > River {
		return fmt.Sprintf("street(%d)", int(s))
	}
	return [...]string{"preflop", "flop", "turn", "river"}[s]
}

// BoardSize is the number of community cards visible on the street.
func (s Street) BoardSize() int {
	return [...]int{0, 3, 4, 5}[s]
}

// ParseStreet parses a street name.
func ParseStreet(name string) (Street, error) {
	for s := Preflop; s <= River; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown street %q", name)
}

func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Street) UnmarshalText(text []byte) error {
	parsed, err := ParseStreet(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// State is the lifecycle state of a session.
type State int

const (
	StateWaitingForPlayers State = iota
	StatePreflop
	StateFlop
	StateTurn
	StateRiver
	StateShowdown
	StateCompleted
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateWaitingForPlayers:
		return "waiting_for_players"
	case StatePreflop:
		return "preflop"
	case StateFlop:
		return "flop"
	case StateTurn:
		return "turn"
	case StateRiver:
		return "river"
	case StateShowdown:
		return "showdown"
	case StateCompleted:
		return "completed"
	case StatePaused:
		return "paused"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st := StateWaitingForPlayers; st <= StatePaused; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Betting reports whether actions can be recorded in this state.
func (s State) Betting() bool {
	return s >= StatePreflop && s <= StateRiver
}

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StatePaused
}

func stateForStreet(s Street) State {
	return StatePreflop + State(s)
}

// roundState tracks the betting of the current street.
type roundState struct {
	LastAggressor int
	Acted         []bool
}

func newRoundState(players int) roundState {
	return roundState{LastAggressor: -1, Acted: make([]bool, players)}
}

func (r roundState) clone() roundState {
	r.Acted = append([]bool(nil), r.Acted...)
	return r
}

// reopen clears acted flags for everyone but the aggressor after a bet or raise.
func (r *roundState) reopen(aggressor int) {
	for i := range r.Acted {
		r.Acted[i] = i == aggressor
	}
	r.LastAggressor = aggressor
}
