// Package phenology derives crop sowing and harvest dates from a per-step
// crop phase series (CLM's CPHASE) and pairs them into growing seasons.
//
// Each category is a two-state automaton: phase == fallow code (4) is fallow,
// phase < fallow is growing. A sowing is a fallow to growing transition and a
// harvest the reverse; both are stamped with the date of the step on which the
// transition starts. The last step can never start a transition.
package phenology

import (
	"errors"
	"fmt"

	"github.com/chrissnell/ctsmpost/pkg/calendar"
)

const (
	// DefaultFallowCode is CLM's "harvested / not planted" crop phase.
	DefaultFallowCode = 4

	// MissingDay marks the harvest of a season still open at the end of
	// the record.
	MissingDay = -1
)

var (
	ErrMoreHarvests     = errors.New("phenology: more harvests than sowings")
	ErrUnmatchedSowings = errors.New("phenology: more than one unmatched sowing")
	ErrNotAlternating   = errors.New("phenology: sowings and harvests do not alternate")
	ErrHarvestWindow    = errors.New("phenology: harvest outside valid window relative to sowing")
	ErrInput            = errors.New("phenology: malformed input")
)

// Event is a detected sowing or harvest.
type Event struct {
	Step int
	Date calendar.YearDay
}

// EventPair is one growing season of one category.
type EventPair struct {
	SowingYear  int `json:"sowing_year"`
	SowingDay   int `json:"sowing_day"`
	HarvestYear int `json:"harvest_year"`
	HarvestDay  int `json:"harvest_day"`
}

// Open reports whether the season had not been harvested by the end of the record.
func (p EventPair) Open() bool { return p.HarvestDay == MissingDay }

// CategoryError reports a data-consistency failure for one category with the
// events that caused it.
type CategoryError struct {
	Category string
	Sowings  []Event
	Harvests []Event
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("category %q (%d sowings, %d harvests): %v", e.Category, len(e.Sowings), len(e.Harvests), e.Err)
}

func (e *CategoryError) Unwrap() error { return e.Err }

// Detect scans one category's phase series for sowings and harvests.
func Detect(phase []float64, times []calendar.YearDay, fallow int) (sowings, harvests []Event) {
	f := float64(fallow)
	for t := 0; t+1 < len(phase); t++ {
		switch {
		case phase[t] == f && phase[t+1] < f:
			sowings = append(sowings, Event{Step: t, Date: times[t]})
		case phase[t] < f && phase[t+1] == f:
			harvests = append(harvests, Event{Step: t, Date: times[t]})
		}
	}
	return sowings, harvests
}

// Pair turns one category's detected events into growing seasons.
//
// A harvest that comes before the first sowing closes a season that began
// before the record and is dropped. After that the counts must satisfy
// nsow == nhar or nsow == nhar+1, the events must alternate sowing, harvest,
// sowing, ..., and every harvest must fall in its sowing's year or the next.
// A trailing sowing without harvest yields an open pair.
func Pair(category string, sowings, harvests []Event) ([]EventPair, error) {
	fail := func(err error) error {
		return &CategoryError{Category: category, Sowings: sowings, Harvests: harvests, Err: err}
	}

	har := harvests
	if len(har) > 0 && (len(sowings) == 0 || har[0].Date.Before(sowings[0].Date)) {
		har = har[1:]
	}

	nsow, nhar := len(sowings), len(har)
	if nhar > nsow {
		return nil, fail(fmt.Errorf("%w: %d harvests but only %d sowings", ErrMoreHarvests, nhar, nsow))
	}
	if nsow > nhar+1 {
		return nil, fail(fmt.Errorf("%w: %d sowings but only %d harvests", ErrUnmatchedSowings, nsow, nhar))
	}

	for k, h := range har {
		if h.Step <= sowings[k].Step {
			return nil, fail(fmt.Errorf("%w: harvest %s does not follow sowing %s", ErrNotAlternating, h.Date, sowings[k].Date))
		}
		if k+1 < nsow && sowings[k+1].Step <= h.Step {
			return nil, fail(fmt.Errorf("%w: sowing %s precedes harvest %s of the previous season", ErrNotAlternating, sowings[k+1].Date, h.Date))
		}
	}

	pairs := make([]EventPair, nsow)
	for k, s := range sowings {
		p := EventPair{SowingYear: s.Date.Year, SowingDay: s.Date.Day}
		if k < nhar {
			h := har[k].Date
			if h.Year != s.Date.Year && h.Year != s.Date.Year+1 {
				return nil, fail(fmt.Errorf("%w: sown %s, harvested %s", ErrHarvestWindow, s.Date, h))
			}
			p.HarvestYear, p.HarvestDay = h.Year, h.Day
		} else {
			p.HarvestYear, p.HarvestDay = s.Date.Year, MissingDay
		}
		pairs[k] = p
	}
	return pairs, nil
}
