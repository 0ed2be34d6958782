package poker

import (
	rand "math/rand/v2"
)

// Deck is a pool of cards dealt without replacement. A full deck holds all
// 52 cards; NewDeckExcluding builds the unseen pool used for simulation.
type Deck struct {
	cards [52]Card // Fixed size array
	size  int
	next  int
	rng   *rand.Rand // Random source for deterministic shuffling
}

// NewDeck creates a new shuffled 52-card deck with an explicit RNG.
func NewDeck(rng *rand.Rand) *Deck {
	d := NewDeckExcluding(0, rng)
	d.Shuffle()
	return d
}

// NewDeckExcluding creates an unshuffled deck holding every card not in used.
func NewDeckExcluding(used Hand, rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	for i := range 52 {
		card := CardFromIndex(i)
		if used.HasCard(card) {
			continue
		}
		d.cards[d.size] = card
		d.size++
	}
	return d
}

// Shuffle shuffles the whole deck using Fisher-Yates and resets the deal position.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := d.size - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Sample returns n cards drawn uniformly without replacement by running
// n steps of a Fisher-Yates shuffle and taking the prefix. The returned
// slice aliases the deck and is valid until the next call. The deal position
// is reset, so repeated calls are independent draws from the same pool.
func (d *Deck) Sample(n int) []Card {
	if n > d.size {
		return nil
	}
	for i := range n {
		j := i + d.rng.IntN(d.size-i)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	d.next = 0
	return d.cards[:n]
}

// Deal deals n cards from the deck
func (d *Deck) Deal(n int) []Card {
	if d.next+n > d.size {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// DealOne deals a single card from the deck
func (d *Deck) DealOne() Card {
	if d.next >= d.size {
		return 0
	}
	card := d.cards[d.next]
	d.next++
	return card
}

// Cards returns the cards still in the pool, in current order.
func (d *Deck) Cards() []Card {
	return d.cards[:d.size]
}

// CardsRemaining returns the number of cards left to deal.
func (d *Deck) CardsRemaining() int {
	return d.size - d.next
}
