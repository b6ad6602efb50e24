package hwatu

import "testing"

func mustCard(t *testing.T, id string) Card {
	t.Helper()
	card, ok := CardByID(id)
	if !ok {
		t.Fatalf("Unknown card id %s", id)
	}
	return card
}

func TestMatchesSameMonthOnly(t *testing.T) {
	field := []Card{
		mustCard(t, "1-1"),
		mustCard(t, "2-0"),
		mustCard(t, "1-2"),
		mustCard(t, "5-0"),
	}

	matches := Matches(mustCard(t, "1-0"), field)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "1-1" || matches[1].ID != "1-2" {
		t.Errorf("Matches out of field order: %v", matches)
	}
}

func TestMatchCountCases(t *testing.T) {
	tests := []struct {
		name  string
		field []string
		want  int
	}{
		{"no match", []string{"2-0", "3-0"}, 0},
		{"one match", []string{"1-1", "3-0"}, 1},
		{"two matches", []string{"1-1", "1-2", "3-0"}, 2},
		{"three matches", []string{"1-1", "1-2", "1-3"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := make([]Card, 0, len(tt.field))
			for _, id := range tt.field {
				field = append(field, mustCard(t, id))
			}
			got := MatchCount(mustCard(t, "1-0"), field)
			if got != tt.want {
				t.Errorf("MatchCount = %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestIsBomb(t *testing.T) {
	for count := 0; count <= 3; count++ {
		want := count == 3
		if IsBomb(count) != want {
			t.Errorf("IsBomb(%d) = %v, expected %v", count, IsBomb(count), want)
		}
	}
}
