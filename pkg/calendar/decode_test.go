package calendar

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name    string
		units   string
		want    Units
		wantErr bool
	}{
		{
			name:  "days with clock",
			units: "days since 0001-01-01 00:00:00",
			want:  Units{Step: 24 * time.Hour, Epoch: Epoch{Year: 1, Month: 1, Day: 1}},
		},
		{
			name:  "hours without clock",
			units: "hours since 1850-1-1",
			want:  Units{Step: time.Hour, Epoch: Epoch{Year: 1850, Month: 1, Day: 1}},
		},
		{
			name:  "seconds with partial clock",
			units: "seconds since 2000-03-01 06:30",
			want:  Units{Step: time.Second, Epoch: Epoch{Year: 2000, Month: 3, Day: 1, Hour: 6, Minute: 30}},
		},
		{name: "missing since", units: "days after 2000-01-01", wantErr: true},
		{name: "unknown step", units: "fortnights since 2000-01-01", wantErr: true},
		{name: "bad date", units: "days since 2000-01", wantErr: true},
		{name: "bad month", units: "days since 2000-13-01", wantErr: true},
		{name: "bad clock", units: "days since 2000-01-01 noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.units)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadUnits)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"noleap":    NoLeap,
		"365_day":   NoLeap,
		"Gregorian": Standard,
		"all_leap":  AllLeap,
		"360_day":   Day360,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
	_, err := ParseKind("julian")
	require.ErrorIs(t, err, ErrUnknownCalendar)
}

func TestYearDays(t *testing.T) {
	tests := []struct {
		name     string
		units    string
		calendar string
		values   []float64
		want     []YearDay
	}{
		{
			name:     "noleap days",
			units:    "days since 2001-01-01 00:00:00",
			calendar: "noleap",
			values:   []float64{0, 39, 364, 365, 730.5, -1},
			want:     []YearDay{{2001, 1}, {2001, 40}, {2001, 365}, {2002, 1}, {2003, 1}, {2000, 365}},
		},
		{
			name:     "noleap epoch mid year",
			units:    "days since 2000-03-01",
			calendar: "noleap",
			values:   []float64{0, 306},
			want:     []YearDay{{2000, 60}, {2001, 1}},
		},
		{
			name:     "standard leap year",
			units:    "days since 2000-01-01",
			calendar: "gregorian",
			values:   []float64{59, 365, 366},
			want:     []YearDay{{2000, 60}, {2000, 366}, {2001, 1}},
		},
		{
			name:     "hours with epoch clock",
			units:    "hours since 2001-01-01 12:00:00",
			calendar: "noleap",
			values:   []float64{11, 12, 36},
			want:     []YearDay{{2001, 1}, {2001, 2}, {2001, 3}},
		},
		{
			name:     "360 day",
			units:    "days since 1990-01-01",
			calendar: "360_day",
			values:   []float64{359, 360},
			want:     []YearDay{{1990, 360}, {1991, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(tt.units, tt.calendar)
			require.NoError(t, err)
			got, err := d.YearDays(tt.values)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecoderErrors(t *testing.T) {
	_, err := NewDecoder("days since 2001-02-29", "standard")
	require.ErrorIs(t, err, ErrBadUnits)
	_, err = NewDecoder("days since 2001-01-01", "lunar")
	require.ErrorIs(t, err, ErrUnknownCalendar)

	d, err := NewDecoder("days since 2001-01-01", "noleap")
	require.NoError(t, err)
	_, err = d.YearDays([]float64{0, math.NaN()})
	require.ErrorIs(t, err, ErrBadValue)
}

func TestYearDayBefore(t *testing.T) {
	require.True(t, YearDay{2001, 300}.Before(YearDay{2002, 1}))
	require.True(t, YearDay{2001, 1}.Before(YearDay{2001, 2}))
	require.False(t, YearDay{2001, 2}.Before(YearDay{2001, 2}))
	require.Equal(t, "2001-040", YearDay{2001, 40}.String())
}

func TestTimesWarnsOnlyWithoutOptIn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core).Sugar()

	d, err := NewDecoder("days since 2000-01-01", "noleap")
	require.NoError(t, err)

	times, err := d.Times([]float64{0, 59.5}, ConvertOptions{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "noleap", logs.All()[0].ContextMap()["calendar"])

	// day 60 of 2000 is Feb 29 on the standard calendar
	require.Equal(t, time.Date(2000, time.February, 29, 12, 0, 0, 0, time.UTC), times[1])

	_, err = d.Times([]float64{0}, ConvertOptions{Logger: logger, AllowNonStandard: true})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	std, err := NewDecoder("days since 2000-01-01", "standard")
	require.NoError(t, err)
	_, err = std.Times([]float64{0}, ConvertOptions{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
}
