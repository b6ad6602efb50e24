package scoring

import "github.com/gostop/gostop-server-go/internal/hwatu"

// godoriMonths are the three animal months forming the godori set.
var godoriMonths = []hwatu.Month{2, 4, 8}

func calculateGwang(cards []hwatu.Card) GwangScore {
	count := len(cards)
	score := GwangScore{Count: count, Type: GwangNone}

	if count < 3 {
		return score
	}

	hasRain := false
	for _, c := range cards {
		if c.Month == hwatu.RainGwangMonth {
			hasRain = true
			break
		}
	}

	switch {
	case count >= 5:
		score.Points = 15
		score.Type = GwangFive
	case count == 4:
		score.Points = 4
		score.Type = GwangFour
	case hasRain:
		// Rain gwang devalues a three-gwang set.
		score.Points = 2
		score.Type = GwangThreeWithRain
	default:
		score.Points = 3
		score.Type = GwangThree
	}
	return score
}

func calculateAnimal(cards []hwatu.Card) AnimalScore {
	count := len(cards)
	score := AnimalScore{Count: count}

	months := make(map[hwatu.Month]bool)
	for _, c := range cards {
		months[c.Month] = true
	}
	hasGodori := true
	for _, m := range godoriMonths {
		if !months[m] {
			hasGodori = false
			break
		}
	}

	// Godori is worth 5 regardless of total count, and stacks with the
	// per-card bonus for five or more animals.
	if hasGodori {
		score.HasGodori = true
		score.Points += 5
	}
	if count >= 5 {
		score.Points += 1 + (count - 5)
	}
	return score
}

func calculateRibbon(cards []hwatu.Card) RibbonScore {
	count := len(cards)
	score := RibbonScore{Count: count}

	for _, c := range cards {
		switch c.RibbonKind {
		case hwatu.RibbonHongdan:
			score.HasHongdan = true
		case hwatu.RibbonChodan:
			score.HasChodan = true
		case hwatu.RibbonCheongdan:
			score.HasCheongdan = true
		}
	}

	if count < 5 {
		return score
	}

	score.Points = 1 + (count - 5)
	if score.HasHongdan {
		score.Points += 3
	}
	if score.HasChodan {
		score.Points += 3
	}
	if score.HasCheongdan {
		score.Points += 3
	}
	return score
}

func calculatePi(cards []hwatu.Card) PiScore {
	count := 0
	for _, c := range cards {
		count += c.PiValue()
	}

	score := PiScore{Count: count}
	if count >= 10 {
		score.Points = 1 + (count - 10)
	}
	return score
}

// Calculate computes the full score breakdown for one player's captured
// cards. It is a pure function: no multipliers are attached and FinalPoints
// equals BasePoints until ApplyMultipliers is called.
func Calculate(captured CapturedCards) ScoreBreakdown {
	gwang := calculateGwang(captured.Gwang)
	animal := calculateAnimal(captured.Animal)
	ribbon := calculateRibbon(captured.Ribbon)
	pi := calculatePi(captured.Pi)

	base := gwang.Points + animal.Points + ribbon.Points + pi.Points

	return ScoreBreakdown{
		Gwang:       gwang,
		Animal:      animal,
		Ribbon:      ribbon,
		Pi:          pi,
		BasePoints:  base,
		Multipliers: nil,
		FinalPoints: base,
	}
}

// ApplyMultipliers attaches the ordered multiplier list to a breakdown and
// recomputes FinalPoints from BasePoints without re-deriving category
// scores. Go declarations add one point each for the first two and double
// the total for every declaration beyond that; the remaining entries
// multiply by their value.
func ApplyMultipliers(breakdown ScoreBreakdown, multipliers []Multiplier) ScoreBreakdown {
	points := breakdown.BasePoints

	for _, m := range multipliers {
		switch m.Type {
		case MultiplierGo:
			goCount := m.Value
			if goCount >= 1 {
				bonus := goCount
				if bonus > 2 {
					bonus = 2
				}
				points += bonus
			}
			for i := 3; i <= goCount; i++ {
				points *= 2
			}
		default:
			if m.Value > 0 {
				points *= m.Value
			}
		}
	}

	breakdown.Multipliers = append(breakdown.Multipliers[:len(breakdown.Multipliers):len(breakdown.Multipliers)], multipliers...)
	breakdown.FinalPoints = points
	return breakdown
}
