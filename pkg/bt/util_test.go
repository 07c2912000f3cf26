package bt

import "testing"

func TestCeil(t *testing.T) {
	tt := []struct {
		a, b, wanted int
	}{
		{0, 8, 0},
		{1, 8, 1},
		{8, 8, 1},
		{9, 8, 2},
		{92063, 16384, 6},
	}

	for _, tc := range tt {
		if got := Ceil(tc.a, tc.b); got != tc.wanted {
			t.Errorf("Ceil(%d, %d) - wanted %d got %d", tc.a, tc.b, tc.wanted, got)
		}
	}
}
