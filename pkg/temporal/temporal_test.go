package temporal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrissnell/ctsmpost/pkg/labeled"
)

// monthly builds a [time, pft] array of nyears*12 months and two patches,
// with value(t, p) = f(t, p).
func monthly(t *testing.T, nyears int, f func(month, p int) float64) *labeled.Array {
	t.Helper()
	n := nyears * 12
	data := make([]float64, 0, n*2)
	times := make([]any, n)
	for m := 0; m < n; m++ {
		times[m] = 2000 + float64(m)/12
		data = append(data, f(m, 0), f(m, 1))
	}
	a, err := labeled.New(data,
		labeled.Axis{Name: TimeDim, Coords: times},
		labeled.Axis{Name: "pft", Coords: []any{"corn", "rice"}},
	)
	require.NoError(t, err)
	return a
}

func TestMonthlyToMonthByYear(t *testing.T) {
	src := monthly(t, 2, func(m, p int) float64 { return float64(m*10 + p) })

	out, err := MonthlyToMonthByYear(src)
	require.NoError(t, err)
	require.Equal(t, []string{YearDim, "pft", MonthDim}, out.Dims())
	require.Equal(t, []int{2, 2, 12}, out.Shape())

	years, err := out.Coords(YearDim)
	require.NoError(t, err)
	srcTimes, _ := src.Coords(TimeDim)
	require.Equal(t, []any{srcTimes[11], srcTimes[23]}, years)

	months, err := out.Coords(MonthDim)
	require.NoError(t, err)
	require.Equal(t, 1, months[0])
	require.Equal(t, 12, months[11])

	for y := 0; y < 2; y++ {
		for p := 0; p < 2; p++ {
			for m := 0; m < 12; m++ {
				got, err := out.At(y, p, m)
				require.NoError(t, err)
				want, _ := src.At(y*12+m, p)
				require.Equal(t, want, got)
			}
		}
	}
}

func TestMonthlyToAnnual(t *testing.T) {
	// a constant series averages to itself
	flat := monthly(t, 3, func(_, p int) float64 { return float64(p + 1) })
	out, err := MonthlyToAnnual(flat)
	require.NoError(t, err)
	require.Equal(t, []string{YearDim, "pft"}, out.Dims())
	for y := 0; y < 3; y++ {
		v, _ := out.At(y, 0)
		require.InDelta(t, 1.0, v, 1e-12)
		v, _ = out.At(y, 1)
		require.InDelta(t, 2.0, v, 1e-12)
	}

	// only February set: weight is 28/365
	feb := monthly(t, 1, func(m, _ int) float64 {
		if m%12 == 1 {
			return 1
		}
		return 0
	})
	out, err = MonthlyToAnnual(feb)
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	require.InDelta(t, 28.0/365.0, v, 1e-12)
}

func TestPartialYear(t *testing.T) {
	a, err := labeled.New(make([]float64, 13), labeled.Axis{Name: TimeDim, Coords: labeled.IndexCoords(13)})
	require.NoError(t, err)
	_, err = MonthlyToAnnual(a)
	require.ErrorIs(t, err, ErrPartialYear)

	b, err := labeled.New(make([]float64, 12), labeled.Axis{Name: "month_index", Coords: labeled.IndexCoords(12)})
	require.NoError(t, err)
	_, err = MonthlyToMonthByYear(b)
	require.ErrorIs(t, err, labeled.ErrAxisNotFound)
}
