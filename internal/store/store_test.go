package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/ctsmpost/pkg/calendar"
	"github.com/chrissnell/ctsmpost/pkg/phenology"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// grid builds samples for a [len(days), len(veg)] series with phase(t, c).
func grid(days []int, veg []int, phase func(t, c int) float64) []PhaseSample {
	var out []PhaseSample
	for t, d := range days {
		for c, v := range veg {
			out = append(out, PhaseSample{
				Step:    t,
				Date:    calendar.YearDay{Year: 2001, Day: d},
				Column:  c,
				VegType: v,
				Phase:   phase(t, c),
			})
		}
	}
	return out
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x", nil)
	require.ErrorIs(t, err, ErrUnsupportedDriver)

	s := openTest(t)
	v, err := s.Migrator().GetCurrentVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestConnectLeavesSchema(t *testing.T) {
	ctx := context.Background()
	s, err := Connect(ctx, "sqlite", ":memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	pending, err := s.Migrator().GetPendingMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "initial schema", pending[0].Name)

	require.NoError(t, s.Migrator().MigrateUp(ctx))
	require.NoError(t, s.Migrator().MigrateDown(ctx, 0))
	v, err := s.Migrator().GetCurrentVersion(ctx)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestRebind(t *testing.T) {
	s := &Store{driver: "postgres"}
	require.Equal(t, "SELECT a FROM b WHERE c = $1 AND d = $2", s.rebind("SELECT a FROM b WHERE c = ? AND d = ?"))
	s.driver = "sqlite"
	require.Equal(t, "c = ?", s.rebind("c = ?"))
}

func TestPhaseSeriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	days := []int{10, 40, 70}
	samples := grid(days, []int{17, 75}, func(tt, c int) float64 { return float64(tt*10 + c) })
	// insertion order must not matter
	samples[0], samples[len(samples)-1] = samples[len(samples)-1], samples[0]
	require.NoError(t, s.SavePhaseSamples(ctx, "i2000", samples))

	series, err := s.LoadPhaseSeries(ctx, "i2000")
	require.NoError(t, err)
	require.Equal(t, []string{TimeDim, ColumnDim}, series.Phase.Dims())
	require.Equal(t, []int{3, 2}, series.Phase.Shape())
	require.Equal(t, calendar.YearDay{Year: 2001, Day: 40}, series.Times[1])
	require.Equal(t, [][]int{{17, 75}, {17, 75}, {17, 75}}, series.VegTypes)
	v, err := series.Phase.At(2, 1)
	require.NoError(t, err)
	require.Equal(t, 21.0, v)

	coords, err := series.Phase.Coords(TimeDim)
	require.NoError(t, err)
	require.Equal(t, calendar.YearDay{Year: 2001, Day: 70}, coords[2])

	cases, err := s.Cases(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"i2000"}, cases)

	// saving again replaces
	require.NoError(t, s.SavePhaseSamples(ctx, "i2000", grid([]int{5}, []int{17}, func(int, int) float64 { return 4 })))
	series, err = s.LoadPhaseSeries(ctx, "i2000")
	require.NoError(t, err)
	require.Equal(t, []int{1, 1}, series.Phase.Shape())
}

func TestLoadPhaseSeriesErrors(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.LoadPhaseSeries(ctx, "nothing")
	require.ErrorIs(t, err, ErrCaseNotFound)

	full := grid([]int{1, 2, 3}, []int{17, 18}, func(int, int) float64 { return 4 })

	missing := append([]PhaseSample{}, full[:3]...)
	missing = append(missing, full[4:]...)
	require.NoError(t, s.SavePhaseSamples(ctx, "holes", missing))
	_, err = s.LoadPhaseSeries(ctx, "holes")
	require.ErrorIs(t, err, ErrIncompleteSeries)

	shifted := grid([]int{1, 2}, []int{17}, func(int, int) float64 { return 4 })
	for i := range shifted {
		shifted[i].Step++
	}
	require.NoError(t, s.SavePhaseSamples(ctx, "shifted", shifted))
	_, err = s.LoadPhaseSeries(ctx, "shifted")
	require.ErrorIs(t, err, ErrIncompleteSeries)

	dates := append([]PhaseSample{}, full...)
	dates[1].Date.Day = 99
	require.NoError(t, s.SavePhaseSamples(ctx, "dates", dates))
	_, err = s.LoadPhaseSeries(ctx, "dates")
	require.ErrorIs(t, err, ErrIncompleteSeries)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	outcomes := map[string]phenology.Outcome{
		"temperate_corn": {Pairs: []phenology.EventPair{
			{SowingYear: 2001, SowingDay: 10, HarvestYear: 2001, HarvestDay: 70},
			{SowingYear: 2001, SowingDay: 200, HarvestYear: 2001, HarvestDay: phenology.MissingDay},
		}},
		"soybean":      {Pairs: []phenology.EventPair{}},
		"spring_wheat": {Err: errors.New("phenology: more than one unmatched sowing")},
	}
	run, err := s.SaveRun(ctx, "i2000", outcomes)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Equal(t, 3, run.Categories)
	require.Equal(t, 1, run.Failed)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, run.ID, runs[0].ID)
	require.True(t, run.CreatedAt.Equal(runs[0].CreatedAt))

	got, err := s.Run(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, "i2000", got.Case)

	seasons, err := s.Calendars(ctx, run.ID, "")
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	require.Equal(t, "temperate_corn", seasons[0].PFT)
	require.Equal(t, 70, seasons[0].HarvestDay)
	require.False(t, seasons[0].Open)
	require.Equal(t, 1, seasons[1].Season)
	require.Equal(t, phenology.MissingDay, seasons[1].HarvestDay)
	require.Equal(t, 2001, seasons[1].HarvestYear)
	require.True(t, seasons[1].Open)

	seasons, err = s.Calendars(ctx, run.ID, "soybean")
	require.NoError(t, err)
	require.Empty(t, seasons)

	failures, err := s.Failures(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, []Failure{{PFT: "spring_wheat", Message: "phenology: more than one unmatched sowing"}}, failures)

	_, err = s.Calendars(ctx, "no-such-run", "")
	require.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Failures(ctx, "no-such-run")
	require.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, s.DeleteRun(ctx, run.ID))
	_, err = s.Run(ctx, run.ID)
	require.ErrorIs(t, err, ErrRunNotFound)
	require.ErrorIs(t, s.DeleteRun(ctx, run.ID), ErrRunNotFound)
}

func TestReadPhaseCSV(t *testing.T) {
	in := `phase,step,year,doy,column,itype_veg
4,0,2001,10,0,17
3,0,2001,10,1,75
2.0,1,2001,40,0,17
4,1,2001,40,1,75
`
	samples, err := ReadPhaseCSV(strings.NewReader(in), nil)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	require.Equal(t, PhaseSample{Step: 1, Date: calendar.YearDay{Year: 2001, Day: 40}, Column: 0, VegType: 17, Phase: 2}, samples[2])

	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "missing column", in: "step,year,doy,column,phase\n0,2001,1,0,4\n"},
		{name: "bad int", in: "step,year,doy,column,itype_veg,phase\nx,2001,1,0,17,4\n"},
		{name: "bad float", in: "step,year,doy,column,itype_veg,phase\n0,2001,1,0,17,four\n"},
		{name: "short row", in: "step,year,doy,column,itype_veg,phase\n0,2001,1\n"},
		{name: "time without units", in: "step,time,column,itype_veg,phase\n0,0,0,17,4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPhaseCSV(strings.NewReader(tt.in), nil)
			require.ErrorIs(t, err, ErrBadCSV)
		})
	}
}

func TestReadPhaseCSVDecodesTime(t *testing.T) {
	dec, err := calendar.NewDecoder("days since 2001-01-01", "noleap")
	require.NoError(t, err)

	in := "step,time,column,itype_veg,phase\n0,0,0,17,4\n1,39.5,0,17,3\n2,365,0,17,3\n"
	samples, err := ReadPhaseCSV(strings.NewReader(in), &dec)
	require.NoError(t, err)
	require.Equal(t, calendar.YearDay{Year: 2001, Day: 1}, samples[0].Date)
	require.Equal(t, calendar.YearDay{Year: 2001, Day: 40}, samples[1].Date)
	require.Equal(t, calendar.YearDay{Year: 2002, Day: 1}, samples[2].Date)
}
