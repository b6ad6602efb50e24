package hwatu

// Go/Stop thresholds: 2-player matgo needs 7 points, 3-player gostop needs 3.
const (
	goStopThresholdTwoPlayer   = 7
	goStopThresholdThreePlayer = 3
)

// CanDeclareGoStop reports whether score reaches the Go/Stop threshold for
// the given player count.
func CanDeclareGoStop(score, playerCount int) bool {
	threshold := goStopThresholdThreePlayer
	if playerCount == 2 {
		threshold = goStopThresholdTwoPlayer
	}
	return score >= threshold
}

// CanDeclareShake reports whether exactly three cards of month are in hand.
func CanDeclareShake(hand []Card, month Month) bool {
	return len(CardsByMonth(hand, month)) == 3
}

// CheckChongTong reports whether all four cards of any month are in hand.
// Months are scanned 1 through 12; the first qualifying month wins.
func CheckChongTong(hand []Card) (Month, bool) {
	for month := Month(1); month <= 12; month++ {
		if len(CardsByMonth(hand, month)) == 4 {
			return month, true
		}
	}
	return 0, false
}

// CanRequestReshuffle reports whether no two hand cards share a month.
func CanRequestReshuffle(hand []Card) bool {
	counts := make(map[Month]int)
	for _, c := range hand {
		counts[c.Month]++
	}
	for _, n := range counts {
		if n != 1 {
			return false
		}
	}
	return true
}

// SpecialHandCheck summarizes the declarable special hands after a deal.
type SpecialHandCheck struct {
	ChongTongMonth  Month
	HasChongTong    bool
	ShakeableMonths []Month
	CanReshuffle    bool
}

// CheckSpecialHands evaluates all special-hand guards over one hand.
func CheckSpecialHands(hand []Card) SpecialHandCheck {
	check := SpecialHandCheck{CanReshuffle: CanRequestReshuffle(hand)}
	for month := Month(1); month <= 12; month++ {
		switch len(CardsByMonth(hand, month)) {
		case 4:
			if !check.HasChongTong {
				check.ChongTongMonth = month
				check.HasChongTong = true
			}
		case 3:
			check.ShakeableMonths = append(check.ShakeableMonths, month)
		}
	}
	return check
}
