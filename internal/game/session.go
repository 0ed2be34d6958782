package game

import (
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/sunnuls/TPb-sub002/poker"
)

const (
	MinPlayers = 2
	MaxPlayers = 10
)

// PlayerConfig seats one player.
type PlayerConfig struct {
	Name  string `json:"name"`
	Stack int    `json:"stack"`
}

// Config describes a new hand.
type Config struct {
	TableID    string         `json:"tableId"`
	Players    []PlayerConfig `json:"players"`
	Button     int            `json:"button"`
	SmallBlind int            `json:"smallBlind"`
	BigBlind   int            `json:"bigBlind"`
	Ante       int            `json:"ante"`
}

// Validate checks the configuration before any chips move.
func (c Config) Validate() error {
	n := len(c.Players)
	if n < MinPlayers || n > MaxPlayers {
		return &ConfigError{Reason: fmt.Sprintf("need %d to %d players, got %d", MinPlayers, MaxPlayers, n)}
	}
	names := make(map[string]bool, n)
	for i, p := range c.Players {
		if p.Name == "" {
			return &ConfigError{Reason: fmt.Sprintf("player %d has no name", i)}
		}
		if names[p.Name] {
			return &ConfigError{Reason: fmt.Sprintf("duplicate player name %q", p.Name)}
		}
		names[p.Name] = true
		if p.Stack <= 0 {
			return &ConfigError{Reason: fmt.Sprintf("player %q needs a positive stack", p.Name)}
		}
	}
	if c.Button < 0 || c.Button >= n {
		return &ConfigError{Reason: fmt.Sprintf("button %d out of range", c.Button)}
	}
	if c.SmallBlind <= 0 || c.SmallBlind > c.BigBlind {
		return &ConfigError{Reason: fmt.Sprintf("blinds %d/%d must satisfy 0 < small <= big", c.SmallBlind, c.BigBlind)}
	}
	if c.Ante < 0 {
		return &ConfigError{Reason: "ante cannot be negative"}
	}
	return nil
}

// Session is the state machine for one live hand. It is not safe for
// concurrent use; callers serialize access (see the server Directory).
//
// Every command runs against a clone and only replaces the session state
// once the command and the post-command consistency check both succeed, so
// a rejected command leaves the session exactly as it was.
type Session struct {
	clock quartz.Clock
	snap  Snapshot
	round roundState
}

// NewSession validates cfg, posts antes and blinds into the ledger and
// returns a session in the Preflop state.
func NewSession(cfg Config, clock quartz.Clock) (*Session, []Event, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	now := clock.Now()
	n := len(cfg.Players)

	positions := AssignPositions(n, cfg.Button)
	players := make([]Player, n)
	for i, pc := range cfg.Players {
		players[i] = Player{
			Index:    i,
			Name:     pc.Name,
			Stack:    pc.Stack,
			Position: positions[i],
		}
	}

	s := &Session{
		clock: clock,
		snap: Snapshot{
			ID:         uuid.NewString(),
			TableID:    cfg.TableID,
			State:      StatePreflop,
			Street:     Preflop,
			Players:    players,
			Button:     cfg.Button,
			SmallBlind: cfg.SmallBlind,
			BigBlind:   cfg.BigBlind,
			Ante:       cfg.Ante,
			Board:      []poker.Card{},
			Ledger:     []Action{},
			ToAct:      -1,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		round: newRoundState(n),
	}

	sb := smallBlindSeat(n, cfg.Button)
	bb := bigBlindSeat(n, cfg.Button)
	if cfg.Ante > 0 {
		for i := range n {
			seat := (sb + i) % n
			s.post(seat, PostAnte, min(cfg.Ante, s.snap.Players[seat].Stack), now)
		}
	}
	s.post(sb, PostSmallBlind, min(cfg.SmallBlind, s.snap.Players[sb].Stack), now)
	s.post(bb, PostBigBlind, min(cfg.BigBlind, s.snap.Players[bb].Stack), now)

	events := s.settleRound(bb+1, now)
	if err := s.checkConsistency(); err != nil {
		return nil, nil, err
	}

	events = append([]Event{SessionInitializedEvent{Snapshot: s.Snapshot(), timestamp: now}}, events...)
	return s, events, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.snap.ID }

// TableID returns the table the session belongs to.
func (s *Session) TableID() string { return s.snap.TableID }

// State returns the lifecycle state.
func (s *Session) State() State { return s.snap.State }

// BoardVersion increments on every board change.
func (s *Session) BoardVersion() int { return s.snap.BoardVersion }

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot { return s.snap.Clone() }

// Ledger returns a copy of the recorded actions, blinds and antes included.
func (s *Session) Ledger() []Action { return append([]Action(nil), s.snap.Ledger...) }

// RecordAction validates and applies an action by player.
func (s *Session) RecordAction(player int, kind ActionKind, amount int) ([]Event, error) {
	if !kind.Submittable() {
		return nil, &IllegalAmountError{Kind: kind, Amount: amount, Reason: "forced bets are posted by the session"}
	}
	if !s.snap.State.Betting() {
		return nil, fmt.Errorf("record %s in state %s: %w", kind, s.snap.State, ErrHandNotInProgress)
	}
	if player < 0 || player >= len(s.snap.Players) || player != s.snap.ToAct {
		return nil, &WrongTurnError{Player: player, ToAct: s.snap.ToAct}
	}

	now := s.clock.Now()
	next := s.clone()
	action, err := next.apply(player, kind, amount, now)
	if err != nil {
		return nil, err
	}

	var events []Event
	if len(next.snap.Live()) == 1 {
		next.snap.ToAct = -1
		events = next.complete(CompletedByFold, now)
	} else {
		events = next.settleRound(player+1, now)
	}

	next.snap.UpdatedAt = now
	if err := next.checkConsistency(); err != nil {
		return nil, err
	}
	s.commit(next)

	events = append([]Event{ActionRecordedEvent{Action: action, Snapshot: s.Snapshot(), timestamp: now}}, events...)
	return events, nil
}

// apply moves chips for one action and appends it to the ledger.
func (s *Session) apply(player int, kind ActionKind, amount int, now time.Time) (Action, error) {
	p := &s.snap.Players[player]
	toCall := max(0, s.snap.CurrentBet-p.Bet)
	illegal := func(format string, args ...any) error {
		return &IllegalAmountError{Kind: kind, Amount: amount, Reason: fmt.Sprintf(format, args...)}
	}
	raiseTo := func() (int, error) {
		if amount <= s.snap.CurrentBet {
			return 0, illegal("must exceed the current bet of %d", s.snap.CurrentBet)
		}
		if amount-p.Bet > p.Stack {
			return 0, illegal("only %d chips behind", p.Stack)
		}
		return amount - p.Bet, nil
	}

	var chips int
	switch kind {
	case Fold:
		if amount != 0 {
			return Action{}, illegal("fold carries no amount")
		}
	case Check:
		if amount != 0 {
			return Action{}, illegal("check carries no amount")
		}
		if toCall > 0 {
			return Action{}, illegal("cannot check facing %d to call", toCall)
		}
	case Call:
		if toCall == 0 {
			return Action{}, illegal("nothing to call")
		}
		chips = min(toCall, p.Stack)
		if amount != 0 && amount != chips {
			return Action{}, illegal("call amount is %d", chips)
		}
	case Bet:
		if s.snap.CurrentBet > 0 {
			return Action{}, illegal("there is already a bet of %d", s.snap.CurrentBet)
		}
		c, err := raiseTo()
		if err != nil {
			return Action{}, err
		}
		chips = c
	case Raise:
		if s.snap.CurrentBet == 0 {
			return Action{}, illegal("nothing to raise")
		}
		c, err := raiseTo()
		if err != nil {
			return Action{}, err
		}
		chips = c
	case AllIn:
		if amount != 0 && amount != p.Bet+p.Stack {
			return Action{}, illegal("all-in is %d", p.Bet+p.Stack)
		}
		chips = p.Stack
	}

	action := s.post(player, kind, chips, now)
	if kind == Fold {
		p.Folded = true
	}
	s.round.Acted[player] = true
	if p.Bet > s.snap.CurrentBet {
		s.snap.CurrentBet = p.Bet
		s.round.reopen(player)
		action.Raised = true
		s.snap.Ledger[len(s.snap.Ledger)-1].Raised = true
	}
	return action, nil
}

// post appends a ledger entry for chips moved by player and recomputes the
// pot from the ledger. Antes are dead money and do not count toward the
// street bet.
func (s *Session) post(player int, kind ActionKind, chips int, now time.Time) Action {
	p := &s.snap.Players[player]
	action := Action{
		Sequence:      len(s.snap.Ledger) + 1,
		Player:        player,
		Kind:          kind,
		Amount:        chips,
		Street:        s.snap.Street,
		PotAtAction:   s.snap.Pot,
		StackAtAction: p.Stack,
		Timestamp:     now,
	}

	if kind == PostAnte {
		p.Stack -= chips
		p.Committed += chips
		if p.Stack == 0 {
			p.AllIn = true
		}
	} else {
		p.commit(chips)
		if p.Bet > s.snap.CurrentBet && (kind == PostSmallBlind || kind == PostBigBlind) {
			s.snap.CurrentBet = p.Bet
		}
	}
	action.RaiseTo = p.Bet

	s.snap.Ledger = append(s.snap.Ledger, action)
	s.snap.Pot = s.snap.LedgerTotal()
	return action
}

// settleRound picks the next player to act searching from seat from. When
// nobody needs to act the round is closed: to-act becomes -1 and, on the
// river, the hand goes to showdown.
func (s *Session) settleRound(from int, now time.Time) []Event {
	s.snap.ToAct = s.nextToAct(from)
	if s.snap.ToAct >= 0 || s.snap.Street != River {
		return nil
	}
	events := []Event{StreetChangedEvent{From: s.snap.State, To: StateShowdown, timestamp: now}}
	s.snap.State = StateShowdown
	return append(events, s.complete(CompletedByShowdown, now)...)
}

// nextToAct returns the first seat from from (wrapping) that still owes an
// action, or -1. A player owes an action when facing a bet, or when they
// have not acted this street and someone else can still respond.
func (s *Session) nextToAct(from int) int {
	n := len(s.snap.Players)
	canAct := s.snap.CanActCount()
	for i := range n {
		seat := (from + i) % n
		p := &s.snap.Players[seat]
		if !p.CanAct() {
			continue
		}
		if p.Bet < s.snap.CurrentBet {
			return seat
		}
		if !s.round.Acted[seat] && canAct > 1 {
			return seat
		}
	}
	return -1
}

func (s *Session) complete(reason string, now time.Time) []Event {
	s.snap.State = StateCompleted
	s.snap.ToAct = -1
	return []Event{HandCompletedEvent{Reason: reason, Snapshot: s.snap.Clone(), timestamp: now}}
}

// UpdateBoard adds the community cards for the next street.
func (s *Session) UpdateBoard(cards []poker.Card, street Street) ([]Event, error) {
	if !s.snap.State.Betting() {
		return nil, fmt.Errorf("update board in state %s: %w", s.snap.State, ErrHandNotInProgress)
	}
	from := s.snap.Street
	transition := func(reason string, args ...any) error {
		return &InvalidStreetTransitionError{From: from, To: street, Cards: len(cards), Reason: fmt.Sprintf(reason, args...)}
	}
	if from == River {
		return nil, transition("board is complete")
	}
	want := from + 1
	if street != want {
		return nil, transition("next street is %s", want)
	}
	if need := want.BoardSize() - from.BoardSize(); len(cards) != need {
		return nil, transition("%s needs %d cards", want, need)
	}
	if s.snap.ToAct >= 0 {
		return nil, transition("betting round is still open, player %d to act", s.snap.ToAct)
	}

	known := s.snap.KnownCards()
	for _, c := range cards {
		if !c.Valid() {
			return nil, &poker.InvalidHandError{Cards: cards, Reason: "invalid card"}
		}
		if known.HasCard(c) {
			return nil, &DuplicateCardError{Card: c}
		}
		known.AddCard(c)
	}

	now := s.clock.Now()
	next := s.clone()
	prev := next.snap.State
	next.snap.Board = append(next.snap.Board, cards...)
	next.snap.Street = want
	next.snap.State = stateForStreet(want)
	next.snap.BoardVersion++
	next.snap.CurrentBet = 0
	for i := range next.snap.Players {
		next.snap.Players[i].Bet = 0
	}
	next.round = newRoundState(len(next.snap.Players))

	tail := next.settleRound(next.snap.Button+1, now)
	next.snap.UpdatedAt = now
	if err := next.checkConsistency(); err != nil {
		return nil, err
	}
	s.commit(next)

	events := []Event{
		BoardUpdatedEvent{
			Cards:        append([]poker.Card(nil), cards...),
			Street:       want,
			BoardVersion: s.snap.BoardVersion,
			Snapshot:     s.Snapshot(),
			timestamp:    now,
		},
		StreetChangedEvent{From: prev, To: stateForStreet(want), timestamp: now},
	}
	return append(events, tail...), nil
}

// UpdateHoleCards sets or replaces the hole cards of player. Allowed in any
// betting state.
func (s *Session) UpdateHoleCards(player int, cards []poker.Card) ([]Event, error) {
	if !s.snap.State.Betting() {
		return nil, fmt.Errorf("update hole cards in state %s: %w", s.snap.State, ErrHandNotInProgress)
	}
	if player < 0 || player >= len(s.snap.Players) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, player)
	}
	hole, err := poker.NewHoleCards(cards)
	if err != nil {
		return nil, &poker.InvalidHandError{Cards: cards, Reason: err.Error()}
	}

	known := s.snap.BoardHand()
	for i := range s.snap.Players {
		if i != player {
			known |= s.snap.Players[i].Hole()
		}
	}
	for _, c := range hole {
		if known.HasCard(c) {
			return nil, &DuplicateCardError{Card: c}
		}
	}

	now := s.clock.Now()
	next := s.clone()
	next.snap.Players[player].HoleCards = []poker.Card{hole[0], hole[1]}
	next.snap.UpdatedAt = now
	if err := next.checkConsistency(); err != nil {
		return nil, err
	}
	s.commit(next)

	return []Event{PlayerUpdatedEvent{Player: s.snap.Players[player].clone(), timestamp: now}}, nil
}

// Pause moves a non-terminal session to Paused, which is terminal.
func (s *Session) Pause() ([]Event, error) {
	if s.snap.State.Terminal() {
		return nil, fmt.Errorf("pause in state %s: %w", s.snap.State, ErrHandNotInProgress)
	}
	now := s.clock.Now()
	from := s.snap.State
	s.snap.State = StatePaused
	s.snap.ToAct = -1
	s.snap.UpdatedAt = now
	return []Event{SessionPausedEvent{From: from, timestamp: now}}, nil
}

func (s *Session) clone() *Session {
	return &Session{clock: s.clock, snap: s.snap.Clone(), round: s.round.clone()}
}

func (s *Session) commit(next *Session) {
	s.snap = next.snap
	s.round = next.round
}

// checkConsistency verifies the invariants every committed state must hold.
func (s *Session) checkConsistency() error {
	if total := s.snap.LedgerTotal(); s.snap.Pot != total {
		return &ConsistencyError{Reason: fmt.Sprintf("pot %d does not match ledger total %d", s.snap.Pot, total)}
	}
	committed := 0
	for _, p := range s.snap.Players {
		if p.Stack < 0 {
			return &ConsistencyError{Reason: fmt.Sprintf("player %d has a negative stack", p.Index)}
		}
		committed += p.Committed
	}
	if committed != s.snap.Pot {
		return &ConsistencyError{Reason: fmt.Sprintf("players committed %d but the pot is %d", committed, s.snap.Pot)}
	}
	if t := s.snap.ToAct; t != -1 {
		if t < 0 || t >= len(s.snap.Players) || !s.snap.Players[t].CanAct() {
			return &ConsistencyError{Reason: fmt.Sprintf("player %d cannot be to act", t)}
		}
	}
	if len(s.snap.Board) != s.snap.Street.BoardSize() {
		return &ConsistencyError{Reason: fmt.Sprintf("%s with %d board cards", s.snap.Street, len(s.snap.Board))}
	}
	cards := len(s.snap.Board)
	for i := range s.snap.Players {
		cards += len(s.snap.Players[i].HoleCards)
	}
	if s.snap.KnownCards().CountCards() != cards {
		return &ConsistencyError{Reason: "a card is visible twice"}
	}
	return nil
}
