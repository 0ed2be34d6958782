package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Rank is a card rank, 0 (deuce) through 12 (ace).
type Rank uint8

// Suit is a card suit, 0 (clubs) through 3 (spades).
type Suit uint8

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

const rankChars = "23456789TJQKA"
const suitChars = "cdhs"

// Value returns the conventional numeric rank, 2 through 14 (J=11 … A=14).
func (r Rank) Value() int { return int(r) + 2 }

// RankFromValue converts a 2–14 rank value into a Rank.
func RankFromValue(v int) (Rank, bool) {
	if v < 2 || v > 14 {
		return 0, false
	}
	return Rank(v - 2), true
}

func (r Rank) String() string {
	if r > Ace {
		return "?"
	}
	return string(rankChars[r])
}

func (s Suit) String() string {
	if s > Spades {
		return "?"
	}
	return string(suitChars[s])
}

// Card is a single playing card encoded as one bit of a 52-bit mask.
// Bit position = suit*13 + rank. The zero value is not a valid card.
type Card uint64

// NewCard creates a card from a rank and a suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card(1) << (uint(suit)*13 + uint(rank))
}

// Index returns the bit position of the card (0-51), or -1 for an invalid card.
func (c Card) Index() int {
	if !c.Valid() {
		return -1
	}
	return bits.TrailingZeros64(uint64(c))
}

// CardFromIndex returns the card at bit position i (0-51).
func CardFromIndex(i int) Card {
	return Card(1) << uint(i)
}

// Valid reports whether the card is exactly one of the 52 cards.
func (c Card) Valid() bool {
	return c != 0 && c&(c-1) == 0 && uint64(c) < 1<<52
}

// Rank returns the card rank.
func (c Card) Rank() Rank {
	return Rank(c.Index() % 13)
}

// Suit returns the card suit.
func (c Card) Suit() Suit {
	return Suit(c.Index() / 13)
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + c.Suit().String()
}

// MarshalText encodes a card as its two character form ("As").
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card %#x", uint64(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes the two character form.
func (c *Card) UnmarshalText(text []byte) error {
	card, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

var suitSymbols = map[string]Suit{
	"♣": Clubs,
	"♦": Diamonds,
	"♥": Hearts,
	"♠": Spades,
}

// ParseCard parses "As", "td", "A♠" style notation.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty card")
	}
	rank, ok := parseRank(s[0])
	if !ok {
		return 0, fmt.Errorf("invalid rank %q in %q", s[0], s)
	}
	rest := s[1:]
	if suit, ok := suitSymbols[rest]; ok {
		return NewCard(rank, suit), nil
	}
	if len(rest) != 1 {
		return 0, fmt.Errorf("invalid card %q", s)
	}
	idx := strings.IndexByte(suitChars, lower(rest[0]))
	if idx < 0 {
		return 0, fmt.Errorf("invalid suit %q in %q", rest[0], s)
	}
	return NewCard(rank, Suit(idx)), nil
}

// ParseCards parses a run of cards. Whitespace and commas between cards are
// optional: "AsKd", "As Kd" and "As,Kd" are equivalent.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	var cards []Card
	for _, field := range fields {
		for field != "" {
			n := cardTokenLen(field)
			card, err := ParseCard(field[:n])
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
			field = field[n:]
		}
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests).
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards %q: %v", s, err))
	}
	return cards
}

// cardTokenLen returns the byte length of the leading card token, allowing
// for multi-byte suit symbols.
func cardTokenLen(s string) int {
	for sym := range suitSymbols {
		if strings.HasPrefix(s[1:], sym) {
			return 1 + len(sym)
		}
	}
	if len(s) < 2 {
		return len(s)
	}
	return 2
}

func parseRank(c byte) (Rank, bool) {
	idx := strings.IndexByte(rankChars, upper(c))
	if idx < 0 {
		return 0, false
	}
	return Rank(idx), true
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

// FormatCards renders cards separated by spaces.
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Hand is a set of cards stored as a 52-bit mask.
type Hand uint64

// NewHand builds a hand from cards. Duplicates collapse; use CountCards to detect them.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the card is in the hand.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns a 13-bit rank mask for one suit.
func (h Hand) GetSuitMask(suit Suit) uint16 {
	return uint16(uint64(h)>>(uint(suit)*13)) & 0x1FFF
}

// Cards returns the cards in ascending bit order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	for m := uint64(h); m != 0; m &= m - 1 {
		cards = append(cards, Card(m&-m))
	}
	return cards
}

func (h Hand) String() string {
	return FormatCards(h.Cards())
}

// FullDeck is the mask holding all 52 cards.
const FullDeck Hand = 1<<52 - 1
