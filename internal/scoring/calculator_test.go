package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gostop/gostop-server-go/internal/hwatu"
)

func card(t *testing.T, id string) hwatu.Card {
	t.Helper()
	c, ok := hwatu.CardByID(id)
	require.True(t, ok, "unknown card id %s", id)
	return c
}

func cardList(t *testing.T, ids ...string) []hwatu.Card {
	t.Helper()
	out := make([]hwatu.Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, card(t, id))
	}
	return out
}

func TestGwangThreeWithRain(t *testing.T) {
	captured := CapturedCards{
		// Rain gwang plus two others scores only 2.
		Gwang: cardList(t, "12-0", "1-0", "3-0"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 2, breakdown.Gwang.Points)
	assert.Equal(t, GwangThreeWithRain, breakdown.Gwang.Type)
}

func TestGwangThreeWithoutRain(t *testing.T) {
	captured := CapturedCards{
		Gwang: cardList(t, "1-0", "3-0", "8-0"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 3, breakdown.Gwang.Points)
	assert.Equal(t, GwangThree, breakdown.Gwang.Type)
}

func TestGwangFourAndFive(t *testing.T) {
	four := Calculate(CapturedCards{Gwang: cardList(t, "1-0", "3-0", "8-0", "11-0")})
	assert.Equal(t, 4, four.Gwang.Points)
	assert.Equal(t, GwangFour, four.Gwang.Type)

	five := Calculate(CapturedCards{Gwang: cardList(t, "1-0", "3-0", "8-0", "11-0", "12-0")})
	assert.Equal(t, 15, five.Gwang.Points)
	assert.Equal(t, GwangFive, five.Gwang.Type)
}

func TestGwangBelowThreshold(t *testing.T) {
	breakdown := Calculate(CapturedCards{Gwang: cardList(t, "1-0", "3-0")})
	assert.Equal(t, 0, breakdown.Gwang.Points)
	assert.Equal(t, GwangNone, breakdown.Gwang.Type)
}

func TestAnimalGodoriStacksWithCountBonus(t *testing.T) {
	// Five animals including the godori months 2, 4 and 8.
	captured := CapturedCards{
		Animal: cardList(t, "2-0", "4-0", "8-1", "5-0", "6-0"),
	}

	breakdown := Calculate(captured)
	assert.True(t, breakdown.Animal.HasGodori)
	// 5 for godori plus 1+(5-5) for the count.
	assert.Equal(t, 6, breakdown.Animal.Points)
}

func TestAnimalGodoriBelowFiveStillScores(t *testing.T) {
	captured := CapturedCards{
		Animal: cardList(t, "2-0", "4-0", "8-1"),
	}

	breakdown := Calculate(captured)
	assert.True(t, breakdown.Animal.HasGodori)
	assert.Equal(t, 5, breakdown.Animal.Points)
}

func TestAnimalCountOnly(t *testing.T) {
	captured := CapturedCards{
		Animal: cardList(t, "5-0", "6-0", "7-0", "9-0", "10-0", "12-1"),
	}

	breakdown := Calculate(captured)
	assert.False(t, breakdown.Animal.HasGodori)
	assert.Equal(t, 2, breakdown.Animal.Points)
}

func TestRibbonBelowThresholdTracksKinds(t *testing.T) {
	captured := CapturedCards{
		Ribbon: cardList(t, "1-1", "4-1", "6-1"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 0, breakdown.Ribbon.Points)
	assert.True(t, breakdown.Ribbon.HasHongdan)
	assert.True(t, breakdown.Ribbon.HasChodan)
	assert.True(t, breakdown.Ribbon.HasCheongdan)
}

func TestRibbonFiveWithHongdanSet(t *testing.T) {
	// Full hongdan set plus two chodan: 1 + 3 + 3.
	captured := CapturedCards{
		Ribbon: cardList(t, "1-1", "2-1", "3-1", "4-1", "5-1"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 7, breakdown.Ribbon.Points)
	assert.True(t, breakdown.Ribbon.HasHongdan)
	assert.True(t, breakdown.Ribbon.HasChodan)
	assert.False(t, breakdown.Ribbon.HasCheongdan)
}

func TestPiTenSingles(t *testing.T) {
	captured := CapturedCards{
		Pi: cardList(t, "1-2", "1-3", "2-2", "2-3", "3-2", "3-3", "4-2", "4-3", "5-2", "5-3"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 10, breakdown.Pi.Count)
	assert.Equal(t, 1, breakdown.Pi.Points)
}

func TestPiDoubleJunkCountsTwo(t *testing.T) {
	// Nine singles plus one double junk = 11 pi.
	captured := CapturedCards{
		Pi: cardList(t, "1-2", "1-3", "2-2", "2-3", "3-2", "3-3", "4-2", "4-3", "5-2", "9-3"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 11, breakdown.Pi.Count)
	assert.Equal(t, 2, breakdown.Pi.Points)
}

func TestPiBelowThreshold(t *testing.T) {
	breakdown := Calculate(CapturedCards{Pi: cardList(t, "1-2", "1-3", "2-2")})
	assert.Equal(t, 0, breakdown.Pi.Points)
}

func TestBasePointsSumAcrossCategories(t *testing.T) {
	captured := CapturedCards{
		Gwang:  cardList(t, "1-0", "3-0", "8-0"),
		Animal: cardList(t, "2-0", "4-0", "8-1"),
		Ribbon: cardList(t, "1-1", "2-1", "3-1", "4-1", "5-1"),
		Pi:     cardList(t, "1-2", "1-3", "2-2", "2-3", "3-2", "3-3", "4-2", "4-3", "5-2", "5-3"),
	}

	breakdown := Calculate(captured)
	assert.Equal(t, 3+5+7+1, breakdown.BasePoints)
	assert.Equal(t, breakdown.BasePoints, breakdown.FinalPoints)
	assert.Empty(t, breakdown.Multipliers)
}

func TestApplyMultipliersGo(t *testing.T) {
	base := ScoreBreakdown{BasePoints: 7, FinalPoints: 7}

	one := ApplyMultipliers(base, []Multiplier{{Type: MultiplierGo, Value: 1}})
	assert.Equal(t, 8, one.FinalPoints)

	two := ApplyMultipliers(base, []Multiplier{{Type: MultiplierGo, Value: 2}})
	assert.Equal(t, 9, two.FinalPoints)

	// Third and later go declarations double the running total.
	three := ApplyMultipliers(base, []Multiplier{{Type: MultiplierGo, Value: 3}})
	assert.Equal(t, 18, three.FinalPoints)

	four := ApplyMultipliers(base, []Multiplier{{Type: MultiplierGo, Value: 4}})
	assert.Equal(t, 36, four.FinalPoints)
}

func TestApplyMultipliersOrderedList(t *testing.T) {
	base := ScoreBreakdown{BasePoints: 5, FinalPoints: 5}

	out := ApplyMultipliers(base, []Multiplier{
		{Type: MultiplierGo, Value: 1},
		{Type: MultiplierShake, Value: 2},
		{Type: MultiplierNagari, Value: 2},
	})

	// (5 + 1) * 2 * 2
	assert.Equal(t, 24, out.FinalPoints)
	assert.Len(t, out.Multipliers, 3)
	assert.Equal(t, 5, out.BasePoints)
}

func TestApplyMultipliersDoesNotMutateInput(t *testing.T) {
	base := Calculate(CapturedCards{Gwang: cardList(t, "1-0", "3-0", "8-0")})

	ApplyMultipliers(base, []Multiplier{{Type: MultiplierBomb, Value: 2}})
	assert.Equal(t, base.BasePoints, base.FinalPoints)
	assert.Empty(t, base.Multipliers)
}

func TestBucketForCoversAllTypes(t *testing.T) {
	assert.Equal(t, BucketGwang, BucketFor(hwatu.CardTypeGwang))
	assert.Equal(t, BucketAnimal, BucketFor(hwatu.CardTypeAnimal))
	assert.Equal(t, BucketRibbon, BucketFor(hwatu.CardTypeRibbon))
	assert.Equal(t, BucketPi, BucketFor(hwatu.CardTypeJunk))
	assert.Equal(t, BucketPi, BucketFor(hwatu.CardTypeDoubleJunk))
}

func TestAddRoutesCardToOwnBucket(t *testing.T) {
	var captured CapturedCards
	captured.Add(card(t, "1-0"))
	captured.Add(card(t, "9-3"))
	captured.Add(card(t, "6-1"))

	assert.Len(t, captured.Gwang, 1)
	assert.Len(t, captured.Ribbon, 1)
	assert.Len(t, captured.Pi, 1)
	assert.Len(t, captured.All(), 3)
}
