package rangebook

import (
	"fmt"
	"sync"
)

// Positions lists the canonical seat names, earliest to act first.
var Positions = []string{"UTG", "UTG+1", "MP", "HJ", "CO", "BTN", "SB", "BB"}

// Action names the betting context a chart covers.
type Action string

const (
	ActionOpen Action = "open" // raise first in
	ActionCall Action = "call" // flat call versus a single open
	Action3Bet Action = "3bet" // re-raise versus a single open
)

// Entry is one chart: a range in notation form and how often to take the
// action with hands in it.
type Entry struct {
	Notation    string
	Frequency   float64
	Description string

	once sync.Once
	rng  *Range
	err  error
}

// Range returns the expanded range, parsing it on first use.
func (e *Entry) Range() (*Range, error) {
	e.once.Do(func() {
		e.rng, e.err = ParseRange(e.Notation)
	})
	return e.rng, e.err
}

type key struct {
	position string
	action   Action
	vs       string
}

// Book is a read-only set of preflop charts.
type Book struct {
	entries map[key]*Entry
}

// Lookup returns the chart for position taking action against an opener in
// seat vs ("" for opens). A missing chart is reported with ok=false; it is
// not an error.
func (b *Book) Lookup(position string, action Action, vs string) (*Entry, bool) {
	if action == ActionOpen {
		vs = ""
	}
	e, ok := b.entries[key{position, action, vs}]
	return e, ok
}

// Len returns the number of charts in the book.
func (b *Book) Len() int {
	return len(b.entries)
}

// Validate parses every chart and reports the first broken one.
func (b *Book) Validate() error {
	for k, e := range b.entries {
		if _, err := e.Range(); err != nil {
			return fmt.Errorf("%s %s vs %q: %w", k.position, k.action, k.vs, err)
		}
	}
	return nil
}

var openRanges = map[string]struct {
	notation  string
	frequency float64
}{
	"UTG":   {"77+,ATs+,KTs+,QTs+,JTs,T9s,AJo+,KQo", 1.0},
	"UTG+1": {"66+,A9s+,KTs+,QTs+,JTs,T9s,98s,AJo+,KQo", 1.0},
	"MP":    {"55+,A8s+,K9s+,Q9s+,J9s+,T9s,98s,87s,ATo+,KJo+,QJo", 1.0},
	"HJ":    {"44+,A5s+,K9s+,Q9s+,J9s+,T8s+,98s,87s,76s,ATo+,KTo+,QJo", 1.0},
	"CO":    {"22+,A2s+,K7s+,Q8s+,J8s+,T8s+,97s+,86s+,76s,65s,A8o+,KTo+,QTo+,JTo", 1.0},
	"BTN":   {"22+,A2s+,K2s+,Q5s+,J7s+,T7s+,96s+,85s+,75s+,64s+,54s,A2o+,K8o+,Q9o+,J9o+,T9o", 1.0},
	"SB":    {"22+,A2s+,K5s+,Q7s+,J7s+,T7s+,97s+,86s+,75s+,65s,54s,A5o+,K9o+,Q9o+,J9o+,T9o", 0.85},
}

// Facing ranges depend on how early the opener sits: early is UTG through
// MP, middle is HJ and CO, late is BTN and SB.
type openerBand int

const (
	bandEarly openerBand = iota
	bandMiddle
	bandLate
)

func bandOf(position string) openerBand {
	switch position {
	case "UTG", "UTG+1", "MP":
		return bandEarly
	case "HJ", "CO":
		return bandMiddle
	}
	return bandLate
}

var threeBetRanges = map[openerBand]struct {
	notation  string
	frequency float64
}{
	bandEarly:  {"QQ+,AKs,AKo", 1.0},
	bandMiddle: {"JJ+,AQs+,AKo,A5s,KQs", 0.9},
	bandLate:   {"TT+,AJs+,KQs,AQo+,A5s-A4s,QJs", 0.8},
}

var callRanges = map[openerBand]struct {
	notation  string
	frequency float64
}{
	bandEarly:  {"JJ-77,AQs-AJs,KQs,QJs,JTs,AQo", 1.0},
	bandMiddle: {"TT-55,ATs-A9s,KJs,QJs,JTs,T9s,98s,AQo-AJo,KQo", 1.0},
	bandLate:   {"99-22,ATs-A2s,KJs-K9s,QTs+,J9s+,T8s+,97s+,86s+,75s+,65s,54s,AJo-A8o,KJo,QJo", 0.9},
}

// bigBlindDefend widens the flat range in the big blind, which closes the
// action at a discount.
const bigBlindDefend = ",A2o+,K9o+,Q9o+,J9o+,T9o,K2s+,Q8s+"

// DefaultBook returns the built-in charts: an open range for every seat
// except the big blind, and 3-bet and call ranges for every seat facing an
// open from a seat that acted before it.
func DefaultBook() *Book {
	b := &Book{entries: make(map[key]*Entry)}

	for pos, r := range openRanges {
		b.entries[key{pos, ActionOpen, ""}] = &Entry{
			Notation:    r.notation,
			Frequency:   r.frequency,
			Description: fmt.Sprintf("%s raise first in", pos),
		}
	}

	for hi, hero := range Positions {
		for _, opener := range Positions[:hi] {
			if opener == "BB" {
				continue
			}
			band := bandOf(opener)

			tb := threeBetRanges[band]
			b.entries[key{hero, Action3Bet, opener}] = &Entry{
				Notation:    tb.notation,
				Frequency:   tb.frequency,
				Description: fmt.Sprintf("%s 3-bet vs %s open", hero, opener),
			}

			call := callRanges[band]
			notation := call.notation
			if hero == "BB" {
				notation += bigBlindDefend
			}
			b.entries[key{hero, ActionCall, opener}] = &Entry{
				Notation:    notation,
				Frequency:   call.frequency,
				Description: fmt.Sprintf("%s call vs %s open", hero, opener),
			}
		}
	}
	return b
}
