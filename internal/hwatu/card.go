package hwatu

import "fmt"

// Month identifies one of the twelve hwatu months (1-12).
type Month int

// CardType classifies a card into its scoring category.
type CardType int

const (
	CardTypeGwang CardType = iota
	CardTypeAnimal
	CardTypeRibbon
	CardTypeJunk
	CardTypeDoubleJunk
)

func (t CardType) String() string {
	switch t {
	case CardTypeGwang:
		return "GWANG"
	case CardTypeAnimal:
		return "ANIMAL"
	case CardTypeRibbon:
		return "RIBBON"
	case CardTypeJunk:
		return "JUNK"
	case CardTypeDoubleJunk:
		return "DOUBLE_JUNK"
	default:
		return "UNKNOWN"
	}
}

// RibbonKind distinguishes the ribbon subkinds used for scoring bonuses.
type RibbonKind int

const (
	RibbonNone RibbonKind = iota
	RibbonHongdan
	RibbonChodan
	RibbonCheongdan
	RibbonPlain
)

func (k RibbonKind) String() string {
	switch k {
	case RibbonHongdan:
		return "HONGDAN"
	case RibbonChodan:
		return "CHODAN"
	case RibbonCheongdan:
		return "CHEONGDAN"
	case RibbonPlain:
		return "PLAIN"
	default:
		return "NONE"
	}
}

// Card is one of the 48 hwatu cards. Cards are immutable values; they move
// between deck, hands, field and captured piles but are never duplicated.
type Card struct {
	ID         string
	Month      Month
	Index      int // 0-3 within the month
	Type       CardType
	RibbonKind RibbonKind
	Name       string
}

func cardID(month Month, index int) string {
	return fmt.Sprintf("%d-%d", month, index)
}

func gwang(month Month, index int, name string) Card {
	return Card{ID: cardID(month, index), Month: month, Index: index, Type: CardTypeGwang, Name: name}
}

func animal(month Month, index int, name string) Card {
	return Card{ID: cardID(month, index), Month: month, Index: index, Type: CardTypeAnimal, Name: name}
}

func ribbon(month Month, index int, kind RibbonKind, name string) Card {
	return Card{ID: cardID(month, index), Month: month, Index: index, Type: CardTypeRibbon, RibbonKind: kind, Name: name}
}

func junk(month Month, index int, name string) Card {
	return Card{ID: cardID(month, index), Month: month, Index: index, Type: CardTypeJunk, Name: name}
}

func doubleJunk(month Month, index int, name string) Card {
	return Card{ID: cardID(month, index), Month: month, Index: index, Type: CardTypeDoubleJunk, Name: name}
}

// catalog lists all 48 cards in month order. The rain gwang is month 12.
var catalog = []Card{
	// Month 1: 송학 (pine/crane)
	gwang(1, 0, "1월 광(학)"),
	ribbon(1, 1, RibbonHongdan, "1월 홍단"),
	junk(1, 2, "1월 피"),
	junk(1, 3, "1월 피"),

	// Month 2: 매조 (plum/nightingale)
	animal(2, 0, "2월 동물(꾀꼬리)"),
	ribbon(2, 1, RibbonHongdan, "2월 홍단"),
	junk(2, 2, "2월 피"),
	junk(2, 3, "2월 피"),

	// Month 3: 벚꽃 (cherry/curtain)
	gwang(3, 0, "3월 광(막)"),
	ribbon(3, 1, RibbonHongdan, "3월 홍단"),
	junk(3, 2, "3월 피"),
	junk(3, 3, "3월 피"),

	// Month 4: 흑싸리 (wisteria)
	animal(4, 0, "4월 동물(두견새)"),
	ribbon(4, 1, RibbonChodan, "4월 초단"),
	junk(4, 2, "4월 피"),
	junk(4, 3, "4월 피"),

	// Month 5: 난초 (orchid/iris)
	animal(5, 0, "5월 동물(다리)"),
	ribbon(5, 1, RibbonChodan, "5월 초단"),
	junk(5, 2, "5월 피"),
	junk(5, 3, "5월 피"),

	// Month 6: 모란 (peony)
	animal(6, 0, "6월 동물(나비)"),
	ribbon(6, 1, RibbonCheongdan, "6월 청단"),
	junk(6, 2, "6월 피"),
	junk(6, 3, "6월 피"),

	// Month 7: 홍싸리 (red clover)
	animal(7, 0, "7월 동물(멧돼지)"),
	ribbon(7, 1, RibbonChodan, "7월 초단"),
	junk(7, 2, "7월 피"),
	junk(7, 3, "7월 피"),

	// Month 8: 공산 (susuki/moon)
	gwang(8, 0, "8월 광(달)"),
	animal(8, 1, "8월 동물(기러기)"),
	junk(8, 2, "8월 피"),
	junk(8, 3, "8월 피"),

	// Month 9: 국진 (chrysanthemum)
	animal(9, 0, "9월 동물(술잔)"),
	ribbon(9, 1, RibbonCheongdan, "9월 청단"),
	junk(9, 2, "9월 피"),
	doubleJunk(9, 3, "9월 쌍피"),

	// Month 10: 단풍 (maple)
	animal(10, 0, "10월 동물(사슴)"),
	ribbon(10, 1, RibbonCheongdan, "10월 청단"),
	junk(10, 2, "10월 피"),
	junk(10, 3, "10월 피"),

	// Month 11: 오동 (paulownia)
	gwang(11, 0, "11월 광(봉황)"),
	junk(11, 1, "11월 피"),
	junk(11, 2, "11월 피"),
	doubleJunk(11, 3, "11월 쌍피"),

	// Month 12: 비 (rain/willow)
	gwang(12, 0, "12월 광(비)"),
	animal(12, 1, "12월 동물(제비)"),
	ribbon(12, 2, RibbonPlain, "12월 띠"),
	doubleJunk(12, 3, "12월 쌍피"),
}

// DeckSize is the number of cards in a full hwatu deck.
const DeckSize = 48

// RainGwangMonth is the month whose gwang devalues a three-gwang set.
const RainGwangMonth Month = 12

// Catalog returns a fresh copy of the full 48-card catalog in month order.
func Catalog() []Card {
	deck := make([]Card, len(catalog))
	copy(deck, catalog)
	return deck
}

// CardByID looks up a catalog card by its stable id.
func CardByID(id string) (Card, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// CardsByMonth returns the cards in cards that belong to month.
func CardsByMonth(cards []Card, month Month) []Card {
	var out []Card
	for _, c := range cards {
		if c.Month == month {
			out = append(out, c)
		}
	}
	return out
}

// IsPi reports whether the card counts toward the pi (junk) pile.
func (c Card) IsPi() bool {
	return c.Type == CardTypeJunk || c.Type == CardTypeDoubleJunk
}

// PiValue returns how many pi the card is worth (double junk counts as 2).
func (c Card) PiValue() int {
	switch c.Type {
	case CardTypeDoubleJunk:
		return 2
	case CardTypeJunk:
		return 1
	default:
		return 0
	}
}
