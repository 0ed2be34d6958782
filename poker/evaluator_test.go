package poker

import (
	"errors"
	"testing"

	oracle "github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnuls/TPb-sub002/internal/randutil"
)

func mustEvaluate(t *testing.T, s string) HandRank {
	t.Helper()
	rank, err := Evaluate(MustParseCards(s)...)
	require.NoError(t, err, s)
	return rank
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cards string
		want  HandType
		text  string
	}{
		{"AsKsQsJsTs", StraightFlush, "Royal Flush"},
		{"9h8h7h6h5h2c3d", StraightFlush, "Straight Flush"},
		{"Ac2c3c4c5cKd", StraightFlush, "Straight Flush"},
		{"QcQdQhQs2d", FourOfAKind, "Four of a Kind"},
		{"JcJdJh4s4d9c", FullHouse, "Full House"},
		{"Ah9h7h4h2hKd", Flush, "Flush"},
		{"Ad2c3h4s5d", Straight, "Straight"},
		{"8c7d6h5s4cKdKh", Straight, "Straight"},
		{"7c7d7hAsKd", ThreeOfAKind, "Three of a Kind"},
		{"9c9dTcTdAs", TwoPair, "Two Pair"},
		{"2c2dAsKdQh", Pair, "Pair"},
		{"AsKdQh9c7d5s3h", HighCard, "High Card"},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			t.Parallel()
			rank := mustEvaluate(t, tt.cards)
			assert.Equal(t, tt.want, rank.Type())
			assert.Equal(t, tt.text, rank.String())
		})
	}
}

func TestCategoryOrdering(t *testing.T) {
	t.Parallel()
	// Strongest first.
	hands := []string{
		"AsKsQsJsTs",
		"5d4d3d2dAd",
		"2c2d2h2s3c",
		"AcAdAhKsKd",
		"Ah9h7h4h2h",
		"AdKcQhJsTd",
		"5c4d3h2sAd",
		"AcAdAh3s2d",
		"AcAdKhKs2d",
		"AcAdKhQs9d",
		"AcKdQh9s7d",
		"7c5d4h3s2d",
	}
	for i := 1; i < len(hands); i++ {
		stronger := mustEvaluate(t, hands[i-1])
		weaker := mustEvaluate(t, hands[i])
		assert.Equal(t, 1, stronger.Compare(weaker), "%s should beat %s", hands[i-1], hands[i])
		assert.Less(t, stronger, weaker)
	}
	assert.Equal(t, RoyalFlush, mustEvaluate(t, hands[0]))
	assert.Equal(t, WorstHand-1, mustEvaluate(t, hands[len(hands)-1]))
}

func TestWheelIsLowestStraight(t *testing.T) {
	t.Parallel()
	wheel := mustEvaluate(t, "Ac2d3h4s5c")
	six := mustEvaluate(t, "2d3h4s5c6d")
	assert.Equal(t, 1, six.Compare(wheel))

	// A-2-3-4-5-6 plays the six-high straight, not the wheel.
	both := mustEvaluate(t, "Ac2d3h4s5c6dKh")
	assert.Equal(t, six, both)
}

func TestKickersBreakTies(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, mustEvaluate(t, "AcAdKh9s7d").Compare(mustEvaluate(t, "AhAsQh9c7c")))
	assert.Equal(t, 0, mustEvaluate(t, "AcAdKh9s7d").Compare(mustEvaluate(t, "AhAsKd9c7c")))
	// Board plays: both players share the same best five.
	assert.Equal(t, mustEvaluate(t, "AsKsQsJsTs2c3d"), mustEvaluate(t, "AsKsQsJsTs4h5h"))
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards []Card
	}{
		{"too few", MustParseCards("AsKsQsJs")},
		{"too many", MustParseCards("AsKsQsJsTs9s8s7s")},
		{"duplicate", MustParseCards("AsKsQsJsAs")},
		{"invalid card", append(MustParseCards("AsKsQsJs"), Card(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.cards...)
			var invalid *InvalidHandError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, "invalid_hand", invalid.Code())
		})
	}

	_, err := EvaluateHand(NewHand(MustParseCards("AsKs")...))
	require.Error(t, err)
}

func TestEvaluateIsOrderIndependent(t *testing.T) {
	t.Parallel()
	rng := randutil.New(1)
	for range 200 {
		deck := NewDeck(rng)
		cards := append([]Card(nil), deck.Deal(7)...)
		first, err := Evaluate(cards...)
		require.NoError(t, err)

		rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		second, err := Evaluate(cards...)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, first, Evaluate7Cards(NewHand(cards...)))
	}
}

// The mask evaluator must equal the best of all C(n,5) five-card subsets.
func TestSevenCardsMatchBestSubset(t *testing.T) {
	t.Parallel()
	rng := randutil.New(2)
	for range 500 {
		deck := NewDeck(rng)
		for _, n := range []int{6, 7} {
			cards := append([]Card(nil), deck.Deal(n)...)
			got, err := Evaluate(cards...)
			require.NoError(t, err)

			best := WorstHand
			forEachSubset(cards, 5, func(subset []Card) {
				r, err := Evaluate(subset...)
				require.NoError(t, err)
				if r < best {
					best = r
				}
			})
			require.Equal(t, best, got, "cards %s", FormatCards(cards))
		}
	}
}

// Cross-check pairwise ordering against an independent evaluator.
func TestOrderingMatchesReferenceEvaluator(t *testing.T) {
	t.Parallel()
	rng := randutil.New(3)
	for range 2000 {
		deck := NewDeck(rng)
		board := deck.Deal(5)
		a := append(append([]Card(nil), board...), deck.Deal(2)...)
		b := append(append([]Card(nil), board...), deck.Deal(2)...)

		ra, err := Evaluate(a...)
		require.NoError(t, err)
		rb, err := Evaluate(b...)
		require.NoError(t, err)

		want := sign(int(referenceScore(t, a)) - int(referenceScore(t, b)))
		require.Equal(t, want, ra.Compare(rb), "%s vs %s", FormatCards(a), FormatCards(b))
	}
}

func referenceScore(t *testing.T, cards []Card) int16 {
	t.Helper()
	var hand [7]oracle.Card
	for i, c := range cards {
		r := c.Rank().Value()
		if c.Rank() == Ace {
			r = 1
		}
		oc, err := oracle.MakeCard(oracle.Suit(c.Suit()), oracle.Rank(r))
		require.NoError(t, err)
		hand[i] = oc
	}
	return oracle.Eval7(&hand)
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func forEachSubset(cards []Card, k int, fn func([]Card)) {
	subset := make([]Card, 0, k)
	var rec func(start int)
	rec = func(start int) {
		if len(subset) == k {
			fn(subset)
			return
		}
		for i := start; i < len(cards); i++ {
			subset = append(subset, cards[i])
			rec(i + 1)
			subset = subset[:len(subset)-1]
		}
	}
	rec(0)
}

func BenchmarkEvaluate7Cards(b *testing.B) {
	deck := NewDeck(randutil.New(9))
	hand := NewHand(deck.Deal(7)...)
	b.ResetTimer()
	for b.Loop() {
		_ = Evaluate7Cards(hand)
	}
}
