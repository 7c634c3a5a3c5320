package permits

import (
	"math"
	"testing"
)

func TestPageOffset(t *testing.T) {
	cases := []struct {
		page Page
		want int
	}{
		{Page{}, 0},
		{Page{Number: 1, Limit: 20}, 0},
		{Page{Number: 3, Limit: 20}, 40},
		{Page{Number: 92233720368547760, Limit: 100}, math.MaxInt},
		{Page{Number: math.MaxInt, Limit: 1}, math.MaxInt - 1},
	}
	for _, tc := range cases {
		if got := tc.page.Offset(); got != tc.want {
			t.Errorf("%+v.Offset() = %d, want %d", tc.page, got, tc.want)
		}
		if tc.page.Offset() < 0 {
			t.Errorf("%+v.Offset() is negative", tc.page)
		}
	}
}
