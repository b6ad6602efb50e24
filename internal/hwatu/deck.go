package hwatu

import (
	"fmt"
	"math/rand"
)

// NewDeck returns the full 48-card deck in catalog order.
func NewDeck() []Card {
	return Catalog()
}

// Shuffle returns a uniformly random permutation of deck using the supplied
// source. The input slice is not modified; pass a seeded source for
// deterministic deals.
func Shuffle(deck []Card, rng *rand.Rand) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// DealConfig fixes the hand and field sizes for a player count.
type DealConfig struct {
	PlayerCount int
	HandSize    int
	FieldSize   int
}

// DealConfigFor returns the deal shape for 2 players (10 each, 8 field) or
// 3 players (7 each, 6 field).
func DealConfigFor(playerCount int) (DealConfig, error) {
	switch playerCount {
	case 2:
		return DealConfig{PlayerCount: 2, HandSize: 10, FieldSize: 8}, nil
	case 3:
		return DealConfig{PlayerCount: 3, HandSize: 7, FieldSize: 6}, nil
	default:
		return DealConfig{}, fmt.Errorf("unsupported player count %d", playerCount)
	}
}

// DealResult holds the outcome of dealing a shuffled deck.
type DealResult struct {
	Hands [][]Card
	Field []Card
	Deck  []Card
}

// Deal distributes deck per config: round-robin across hands first, then the
// field, consuming cards strictly in deck order. The remaining deck keeps its
// order and is drawn from the front.
func Deal(deck []Card, config DealConfig) (DealResult, error) {
	need := config.PlayerCount*config.HandSize + config.FieldSize
	if len(deck) < need {
		return DealResult{}, fmt.Errorf("deck has %d cards, need %d", len(deck), need)
	}

	hands := make([][]Card, config.PlayerCount)
	for p := range hands {
		hands[p] = make([]Card, 0, config.HandSize)
	}

	idx := 0
	for i := 0; i < config.HandSize; i++ {
		for p := 0; p < config.PlayerCount; p++ {
			hands[p] = append(hands[p], deck[idx])
			idx++
		}
	}

	field := make([]Card, 0, config.FieldSize)
	for i := 0; i < config.FieldSize; i++ {
		field = append(field, deck[idx])
		idx++
	}

	remaining := make([]Card, len(deck)-idx)
	copy(remaining, deck[idx:])

	return DealResult{Hands: hands, Field: field, Deck: remaining}, nil
}
