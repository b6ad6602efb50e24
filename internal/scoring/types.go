package scoring

import "github.com/gostop/gostop-server-go/internal/hwatu"

// CapturedCards holds one player's winnings bucketed by scoring category.
// Junk and double junk both land in the Pi bucket.
type CapturedCards struct {
	Gwang  []hwatu.Card
	Animal []hwatu.Card
	Ribbon []hwatu.Card
	Pi     []hwatu.Card
}

// BucketFor maps a card type to its captured bucket. The mapping is total
// over all five card types.
func BucketFor(t hwatu.CardType) Bucket {
	switch t {
	case hwatu.CardTypeGwang:
		return BucketGwang
	case hwatu.CardTypeAnimal:
		return BucketAnimal
	case hwatu.CardTypeRibbon:
		return BucketRibbon
	case hwatu.CardTypeJunk, hwatu.CardTypeDoubleJunk:
		return BucketPi
	default:
		return BucketPi
	}
}

// Bucket identifies one of the four captured-card buckets.
type Bucket int

const (
	BucketGwang Bucket = iota
	BucketAnimal
	BucketRibbon
	BucketPi
)

func (b Bucket) String() string {
	switch b {
	case BucketGwang:
		return "GWANG"
	case BucketAnimal:
		return "ANIMAL"
	case BucketRibbon:
		return "RIBBON"
	case BucketPi:
		return "PI"
	default:
		return "UNKNOWN"
	}
}

// Add appends a card to the bucket matching its own type.
func (c *CapturedCards) Add(card hwatu.Card) {
	switch BucketFor(card.Type) {
	case BucketGwang:
		c.Gwang = append(c.Gwang, card)
	case BucketAnimal:
		c.Animal = append(c.Animal, card)
	case BucketRibbon:
		c.Ribbon = append(c.Ribbon, card)
	case BucketPi:
		c.Pi = append(c.Pi, card)
	}
}

// All returns every captured card across the four buckets.
func (c CapturedCards) All() []hwatu.Card {
	out := make([]hwatu.Card, 0, len(c.Gwang)+len(c.Animal)+len(c.Ribbon)+len(c.Pi))
	out = append(out, c.Gwang...)
	out = append(out, c.Animal...)
	out = append(out, c.Ribbon...)
	out = append(out, c.Pi...)
	return out
}

// Clone returns a deep copy of the captured buckets.
func (c CapturedCards) Clone() CapturedCards {
	clone := CapturedCards{}
	clone.Gwang = append([]hwatu.Card(nil), c.Gwang...)
	clone.Animal = append([]hwatu.Card(nil), c.Animal...)
	clone.Ribbon = append([]hwatu.Card(nil), c.Ribbon...)
	clone.Pi = append([]hwatu.Card(nil), c.Pi...)
	return clone
}

// GwangType labels the gwang scoring tier.
type GwangType string

const (
	GwangNone          GwangType = "none"
	GwangThree         GwangType = "samgwang"
	GwangThreeWithRain GwangType = "bisamgwang"
	GwangFour          GwangType = "sagwang"
	GwangFive          GwangType = "ogwang"
)

// GwangScore is the light-card sub-score.
type GwangScore struct {
	Count  int
	Points int
	Type   GwangType
}

// AnimalScore is the animal-card sub-score.
type AnimalScore struct {
	Count     int
	Points    int
	HasGodori bool
}

// RibbonScore is the ribbon-card sub-score. Subkind presence is reported
// even below the five-card threshold so clients can display progress.
type RibbonScore struct {
	Count        int
	Points       int
	HasHongdan   bool
	HasChodan    bool
	HasCheongdan bool
}

// PiScore is the junk-card sub-score. Count includes double junk at 2.
type PiScore struct {
	Count  int
	Points int
}

// MultiplierType tags an entry in the multiplier list.
type MultiplierType string

const (
	MultiplierGo       MultiplierType = "go"
	MultiplierShake    MultiplierType = "shake"
	MultiplierBomb     MultiplierType = "bomb"
	MultiplierPpuk     MultiplierType = "ppuk"
	MultiplierNagari   MultiplierType = "nagari"
	MultiplierGwangBak MultiplierType = "gwangbak"
	MultiplierPiBak    MultiplierType = "pibak"
)

// Multiplier is one tagged entry applied on top of base points. The list is
// ordered and open-ended so later increments can add entries without
// reshaping the calculator.
type Multiplier struct {
	Type  MultiplierType
	Value int
}

// ScoreBreakdown is the full scoring result for one player.
type ScoreBreakdown struct {
	Gwang       GwangScore
	Animal      AnimalScore
	Ribbon      RibbonScore
	Pi          PiScore
	BasePoints  int
	Multipliers []Multiplier
	FinalPoints int
}
