package hwatu

// Matches returns the field cards that share a month with card, preserving
// field order.
func Matches(card Card, field []Card) []Card {
	var out []Card
	for _, f := range field {
		if f.Month == card.Month {
			out = append(out, f)
		}
	}
	return out
}

// MatchCount returns the number of same-month field cards, saturating at 3.
// A fourth same-month field card is structurally impossible once one card of
// the month is in a hand or played.
func MatchCount(card Card, field []Card) int {
	n := len(Matches(card, field))
	if n > 3 {
		n = 3
	}
	return n
}

// IsBomb reports whether a match count captures the whole month at once.
func IsBomb(matchCount int) bool {
	return matchCount == 3
}
