// Package temporal reshapes and reduces monthly model output.
package temporal

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/ctsmpost/pkg/calendar"
	"github.com/chrissnell/ctsmpost/pkg/duplex"
	"github.com/chrissnell/ctsmpost/pkg/labeled"
)

const (
	TimeDim  = "time"
	YearDim  = "year"
	MonthDim = "month"
)

var ErrPartialYear = errors.New("temporal: time axis is not a whole number of years")

// monthWeights are the noleap month lengths normalised to sum to one.
var monthWeights = func() []float64 {
	days := calendar.MonthDays()
	w := make([]float64, len(days))
	for i, d := range days {
		w[i] = float64(d)
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}()

// MonthlyToMonthByYear turns a monthly time axis into a year axis and a
// trailing month axis. Each year is labelled with the time coordinate of its
// last month; months are numbered 1 to 12.
func MonthlyToMonthByYear(a *labeled.Array) (*labeled.Array, error) {
	times, err := a.Coords(TimeDim)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 || len(times)%12 != 0 {
		return nil, fmt.Errorf("%w: %d months", ErrPartialYear, len(times))
	}

	years := make([]any, 0, len(times)/12)
	for i := 11; i < len(times); i += 12 {
		years = append(years, times[i])
	}
	months := make([]any, 12)
	for m := range months {
		months[m] = m + 1
	}

	return duplex.Split(a, duplex.Spec{
		Combined:    TimeDim,
		Outer:       YearDim,
		Inner:       MonthDim,
		OuterCoords: years,
		InnerCoords: months,
		Layout:      duplex.InnerFastest,
		AppendFast:  true,
	})
}

// MonthlyToAnnual averages monthly values into annual means, weighting each
// month by its length in the noleap calendar.
func MonthlyToAnnual(a *labeled.Array) (*labeled.Array, error) {
	byYear, err := MonthlyToMonthByYear(a)
	if err != nil {
		return nil, err
	}
	return byYear.Reduce(MonthDim, func(lane []float64) float64 {
		return floats.Dot(lane, monthWeights)
	})
}
