// Package rangebook expands standard range notation ("TT+,AQs+,KQo") into
// starting-hand classes and holds static preflop charts keyed by position
// and betting context.
package rangebook

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sunnuls/TPb-sub002/poker"
)

// HandSet is a set of starting-hand classes such as "AKs", "T9o" or "77".
type HandSet map[string]struct{}

// Has reports whether class is in the set.
func (s HandSet) Has(class string) bool {
	_, ok := s[class]
	return ok
}

// Classes returns the classes strongest-first: pairs, then suited, then
// offsuit, each by descending ranks.
func (s HandSet) Classes() []string {
	out := make([]string, 0, len(s))
	for class := range s {
		out = append(out, class)
	}
	slices.SortFunc(out, compareClasses)
	return out
}

// Expand returns the set of classes named by notation. Weights, if present,
// are ignored.
func Expand(notation string) (HandSet, error) {
	r, err := ParseRange(notation)
	if err != nil {
		return nil, err
	}
	set := make(HandSet, len(r.weights))
	for class := range r.weights {
		set[class] = struct{}{}
	}
	return set, nil
}

// Range maps starting-hand classes to weights in [0,1].
type Range struct {
	weights map[string]float64
}

// ParseRange parses comma separated tokens, each optionally suffixed with
// ":weight". Later tokens override the weight of earlier ones.
// Examples: "AA,KK", "AKs,AKo", "TT+", "A5s-A2s", "KTs+", "22-66", "AJo:0.5".
func ParseRange(notation string) (*Range, error) {
	r := &Range{weights: make(map[string]float64)}

	for part := range strings.SplitSeq(notation, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		weight := 1.0
		if token, w, ok := strings.Cut(part, ":"); ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
			if err != nil || parsed < 0 || parsed > 1 {
				return nil, fmt.Errorf("invalid range part %q: weight must be in [0,1]", part)
			}
			part, weight = strings.TrimSpace(token), parsed
		}

		classes, err := expandToken(part)
		if err != nil {
			return nil, fmt.Errorf("invalid range part %q: %w", part, err)
		}
		for _, class := range classes {
			r.weights[class] = weight
		}
	}

	return r, nil
}

// Weight returns the weight of a class, zero when absent.
func (r *Range) Weight(class string) float64 {
	return r.weights[class]
}

// Contains reports whether the hole cards fall in a class with non-zero weight.
func (r *Range) Contains(c1, c2 poker.Card) bool {
	return r.weights[poker.HandClass(c1, c2)] > 0
}

// Len returns the number of classes in the range.
func (r *Range) Len() int {
	return len(r.weights)
}

// Classes returns the classes in the range, strongest first.
func (r *Range) Classes() []string {
	set := make(HandSet, len(r.weights))
	for class := range r.weights {
		set[class] = struct{}{}
	}
	return set.Classes()
}

// Combos enumerates the concrete hole-card combinations of the range that
// do not touch any dead card.
func (r *Range) Combos(dead poker.Hand) []poker.Hand {
	var combos []poker.Hand
	for _, class := range r.Classes() {
		if r.weights[class] == 0 {
			continue
		}
		for _, combo := range classCombos(class) {
			if combo&dead == 0 {
				combos = append(combos, combo)
			}
		}
	}
	return combos
}

// classCombos returns the 6, 4 or 12 concrete combos of a class.
func classCombos(class string) []poker.Hand {
	high, _ := parseRank(class[0])
	low, _ := parseRank(class[1])

	var combos []poker.Hand
	for s1 := poker.Clubs; s1 <= poker.Spades; s1++ {
		for s2 := poker.Clubs; s2 <= poker.Spades; s2++ {
			switch {
			case high == low:
				if s2 <= s1 {
					continue
				}
			case class[2] == 's':
				if s1 != s2 {
					continue
				}
			default:
				if s1 == s2 {
					continue
				}
			}
			combos = append(combos, poker.NewHand(poker.NewCard(high, s1), poker.NewCard(low, s2)))
		}
	}
	return combos
}

// expandToken expands a single token such as "TT+", "A5s-A2s" or "KQ".
func expandToken(token string) ([]string, error) {
	if strings.HasSuffix(token, "+") {
		return expandPlus(strings.TrimSuffix(token, "+"))
	}
	if start, end, ok := strings.Cut(token, "-"); ok {
		return expandDash(strings.TrimSpace(start), strings.TrimSpace(end))
	}
	h, err := parseHand(token)
	if err != nil {
		return nil, err
	}
	return h.classes(), nil
}

// expandPlus handles "TT+" (the pair and every higher pair) and "ATs+"
// (the kicker raised up to one below the high card).
func expandPlus(base string) ([]string, error) {
	h, err := parseHand(base)
	if err != nil {
		return nil, err
	}

	var out []string
	if h.pair() {
		for r := h.high; r <= poker.Ace; r++ {
			out = append(out, pairClass(r))
		}
		return out, nil
	}
	for r := h.low; r < h.high; r++ {
		out = append(out, handSpec{high: h.high, low: r, suit: h.suit}.classes()...)
	}
	return out, nil
}

// expandDash handles "22-66" and "A5s-A2s". Endpoints may come in either order.
func expandDash(start, end string) ([]string, error) {
	a, err := parseHand(start)
	if err != nil {
		return nil, err
	}
	b, err := parseHand(end)
	if err != nil {
		return nil, err
	}

	var out []string
	switch {
	case a.pair() && b.pair():
		for r := min(a.high, b.high); r <= max(a.high, b.high); r++ {
			out = append(out, pairClass(r))
		}
	case !a.pair() && !b.pair() && a.high == b.high && a.suit == b.suit:
		for r := min(a.low, b.low); r <= max(a.low, b.low); r++ {
			out = append(out, handSpec{high: a.high, low: r, suit: a.suit}.classes()...)
		}
	default:
		return nil, fmt.Errorf("unsupported range %s-%s", start, end)
	}
	return out, nil
}

// handSpec is one parsed class token. suit is 's', 'o' or 0 for both.
type handSpec struct {
	high, low poker.Rank
	suit      byte
}

func (h handSpec) pair() bool { return h.high == h.low }

func (h handSpec) classes() []string {
	if h.pair() {
		return []string{pairClass(h.high)}
	}
	base := h.high.String() + h.low.String()
	switch h.suit {
	case 's':
		return []string{base + "s"}
	case 'o':
		return []string{base + "o"}
	}
	return []string{base + "s", base + "o"}
}

func pairClass(r poker.Rank) string {
	return r.String() + r.String()
}

func parseHand(s string) (handSpec, error) {
	if len(s) < 2 || len(s) > 3 {
		return handSpec{}, fmt.Errorf("invalid notation length: %s", s)
	}
	r1, ok1 := parseRank(s[0])
	r2, ok2 := parseRank(s[1])
	if !ok1 || !ok2 {
		return handSpec{}, fmt.Errorf("invalid rank in: %s", s)
	}
	if r1 < r2 {
		r1, r2 = r2, r1
	}

	h := handSpec{high: r1, low: r2}
	if len(s) == 3 {
		if h.pair() {
			return handSpec{}, fmt.Errorf("pocket pairs cannot have suited/offsuit modifier: %s", s)
		}
		switch s[2] {
		case 's', 'o':
			h.suit = s[2]
		default:
			return handSpec{}, fmt.Errorf("invalid modifier: %c", s[2])
		}
	}
	return h, nil
}

func parseRank(c byte) (poker.Rank, bool) {
	idx := strings.IndexByte("23456789TJQKA", c)
	if idx < 0 {
		return 0, false
	}
	return poker.Rank(idx), true
}

func compareClasses(a, b string) int {
	kind := func(c string) int {
		switch {
		case c[0] == c[1]:
			return 0
		case c[2] == 's':
			return 1
		}
		return 2
	}
	if ka, kb := kind(a), kind(b); ka != kb {
		return ka - kb
	}
	ha, _ := parseRank(a[0])
	hb, _ := parseRank(b[0])
	if ha != hb {
		return int(hb) - int(ha)
	}
	la, _ := parseRank(a[1])
	lb, _ := parseRank(b[1])
	return int(lb) - int(la)
}
