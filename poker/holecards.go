package poker

import "fmt"

// HandClass names the starting-hand class of two hole cards, the way range
// charts do: "QQ" for a pair, "AKs" suited, "AKo" offsuit. The higher rank
// always comes first.
func HandClass(card1, card2 Card) string {
	r1, r2 := card1.Rank(), card2.Rank()
	if r1 < r2 {
		r1, r2 = r2, r1
	}
	if r1 == r2 {
		return r1.String() + r2.String()
	}
	if card1.Suit() == card2.Suit() {
		return r1.String() + r2.String() + "s"
	}
	return r1.String() + r2.String() + "o"
}

// HoleCards is a player's two private cards.
type HoleCards [2]Card

// NewHoleCards validates two distinct cards.
func NewHoleCards(cards []Card) (HoleCards, error) {
	if len(cards) != 2 {
		return HoleCards{}, fmt.Errorf("hole cards need exactly 2 cards, got %d", len(cards))
	}
	if !cards[0].Valid() || !cards[1].Valid() {
		return HoleCards{}, fmt.Errorf("invalid hole card")
	}
	if cards[0] == cards[1] {
		return HoleCards{}, fmt.Errorf("duplicate hole card %s", cards[0])
	}
	return HoleCards{cards[0], cards[1]}, nil
}

// Hand returns the hole cards as a mask.
func (h HoleCards) Hand() Hand { return NewHand(h[0], h[1]) }

// Class returns the starting-hand class, e.g. "AKs".
func (h HoleCards) Class() string { return HandClass(h[0], h[1]) }

func (h HoleCards) String() string { return h[0].String() + h[1].String() }

// HoleCardCategory represents the strength category of hole cards
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards provides a coarse preflop bucket.
// Premium (JJ+, AK), Strong (TT, AQ/AJ), Medium (77-99, suited broadway),
// Weak (small pairs, suited connectors), Trash (everything else).
func CategorizeHoleCards(card1, card2 Card) HoleCardCategory {
	if !card1.Valid() || !card2.Valid() || card1 == card2 {
		return CategoryUnknown
	}

	small, big := card1.Rank().Value(), card2.Rank().Value()
	if small > big {
		small, big = big, small
	}
	suited := card1.Suit() == card2.Suit()
	isPair := small == big

	switch {
	case isPair && small >= 11, small == 13 && big == 14:
		return CategoryPremium
	case isPair && small == 10, big == 14 && (small == 12 || small == 11):
		return CategoryStrong
	case isPair && small >= 7, suited && small >= 10:
		return CategoryMedium
	case isPair, suited && big-small <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}
