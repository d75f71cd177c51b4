package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundDiv(t *testing.T) {
	cases := []struct {
		name string
		num  int64
		den  int64
		want int64
	}{
		{"exact", 48000, 30, 1600},
		{"rounds half up", 5, 2, 3},
		{"rounds down below half", 7, 3, 2},
		{"rounds up above half", 8, 3, 3},
		{"zero numerator", 0, 5, 0},
		{"zero denominator", 10, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RoundDiv(tc.num, tc.den))
		})
	}
}

func TestFormatMinorUnits(t *testing.T) {
	require.Equal(t, "1,400", FormatMinorUnits(1400))
	require.Equal(t, "-8,500", FormatMinorUnits(-8500))
	require.Equal(t, "0", FormatMinorUnits(0))
}
