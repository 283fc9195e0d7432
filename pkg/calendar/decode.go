package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/ctsmpost/internal/log"
)

const secondsPerDay = 86400

// Epoch is the reference date of CF time units, in the file's own calendar.
type Epoch struct {
	Year, Month, Day     int
	Hour, Minute, Second int
}

// Units is a parsed "<unit> since <epoch>" string.
type Units struct {
	Step  time.Duration
	Epoch Epoch
}

var stepUnits = map[string]time.Duration{
	"days":    24 * time.Hour,
	"day":     24 * time.Hour,
	"d":       24 * time.Hour,
	"hours":   time.Hour,
	"hour":    time.Hour,
	"h":       time.Hour,
	"minutes": time.Minute,
	"minute":  time.Minute,
	"seconds": time.Second,
	"second":  time.Second,
	"s":       time.Second,
}

// ParseUnits parses CF time units such as "days since 0001-01-01 00:00:00".
func ParseUnits(s string) (Units, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 || strings.ToLower(fields[1]) != "since" {
		return Units{}, fmt.Errorf("%w: %q", ErrBadUnits, s)
	}
	step, ok := stepUnits[strings.ToLower(fields[0])]
	if !ok {
		return Units{}, fmt.Errorf("%w: unknown step %q in %q", ErrBadUnits, fields[0], s)
	}

	var e Epoch
	date := strings.Split(fields[2], "-")
	if len(date) != 3 {
		return Units{}, fmt.Errorf("%w: epoch date %q", ErrBadUnits, fields[2])
	}
	for i, p := range []*int{&e.Year, &e.Month, &e.Day} {
		v, err := strconv.Atoi(date[i])
		if err != nil {
			return Units{}, fmt.Errorf("%w: epoch date %q: %v", ErrBadUnits, fields[2], err)
		}
		*p = v
	}

	if len(fields) > 3 {
		clock := strings.Split(strings.TrimSuffix(fields[3], "Z"), ":")
		for i, p := range []*int{&e.Hour, &e.Minute, &e.Second} {
			if i >= len(clock) {
				break
			}
			// fractional seconds are dropped
			v, err := strconv.Atoi(strings.SplitN(clock[i], ".", 2)[0])
			if err != nil {
				return Units{}, fmt.Errorf("%w: epoch time %q: %v", ErrBadUnits, fields[3], err)
			}
			*p = v
		}
	}

	if e.Month < 1 || e.Month > 12 || e.Day < 1 {
		return Units{}, fmt.Errorf("%w: epoch %q out of range", ErrBadUnits, s)
	}
	return Units{Step: step, Epoch: e}, nil
}

// Decoder turns time values into calendar dates.
type Decoder struct {
	Units Units
	Kind  Kind
}

// NewDecoder builds a decoder from the CF "units" and "calendar" attributes.
func NewDecoder(units, calendar string) (Decoder, error) {
	u, err := ParseUnits(units)
	if err != nil {
		return Decoder{}, err
	}
	k, err := ParseKind(calendar)
	if err != nil {
		return Decoder{}, err
	}
	if u.Epoch.Day > k.monthLengths(u.Epoch.Year)[u.Epoch.Month-1] {
		return Decoder{}, fmt.Errorf("%w: epoch day %d beyond month %d of %s calendar", ErrBadUnits, u.Epoch.Day, u.Epoch.Month, k)
	}
	return Decoder{Units: u, Kind: k}, nil
}

func floorDiv(a, b int) (q, r int) {
	q, r = a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}

// split returns the whole days elapsed since the epoch's midnight and the
// seconds into that day.
func (d Decoder) split(v float64) (days, secs int, err error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, 0, fmt.Errorf("%w: %v", ErrBadValue, v)
	}
	e := d.Units.Epoch
	total := v*d.Units.Step.Seconds() + float64(e.Hour*3600+e.Minute*60+e.Second)
	whole := math.Floor(total)
	days, secs = floorDiv(int(whole), secondsPerDay)
	return days, secs, nil
}

func (d Decoder) epochDayOfYear() int {
	e := d.Units.Epoch
	months := d.Kind.monthLengths(e.Year)
	doy := e.Day
	for m := 0; m < e.Month-1; m++ {
		doy += months[m]
	}
	return doy
}

// YearDay decodes a single time value.
func (d Decoder) YearDay(v float64) (YearDay, error) {
	days, _, err := d.split(v)
	if err != nil {
		return YearDay{}, err
	}

	if n := d.Kind.yearLength(); n > 0 {
		abs := d.Units.Epoch.Year*n + d.epochDayOfYear() - 1 + days
		y, r := floorDiv(abs, n)
		return YearDay{Year: y, Day: r + 1}, nil
	}

	e := d.Units.Epoch
	t := time.Date(e.Year, time.Month(e.Month), e.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return YearDay{Year: t.Year(), Day: t.YearDay()}, nil
}

// YearDays decodes every value.
func (d Decoder) YearDays(values []float64) ([]YearDay, error) {
	out := make([]YearDay, len(values))
	for i, v := range values {
		yd, err := d.YearDay(v)
		if err != nil {
			return nil, fmt.Errorf("time step %d: %w", i, err)
		}
		out[i] = yd
	}
	return out, nil
}

// ConvertOptions scopes the behaviour of a single Times call.
type ConvertOptions struct {
	// AllowNonStandard acknowledges that dates on a non-standard calendar
	// are being forced onto the standard one, and silences the warning.
	AllowNonStandard bool
	Logger           *zap.SugaredLogger
}

// Times converts values to time.Time. Non-standard calendars are mapped by
// year and day-of-year, which shifts dates after February in leap years;
// this is logged as a warning unless opts.AllowNonStandard is set.
func (d Decoder) Times(values []float64, opts ConvertOptions) ([]time.Time, error) {
	if !d.Kind.IsStandard() && !opts.AllowNonStandard {
		logger := opts.Logger
		if logger == nil {
			logger = log.GetSugaredLogger()
		}
		logger.Warnw("converting dates from a non-standard calendar to the standard calendar; day-of-year is kept, month and day may shift",
			"calendar", string(d.Kind))
	}

	out := make([]time.Time, len(values))
	for i, v := range values {
		yd, err := d.YearDay(v)
		if err != nil {
			return nil, fmt.Errorf("time step %d: %w", i, err)
		}
		_, secs, _ := d.split(v)
		out[i] = time.Date(yd.Year, time.January, 1, 0, 0, secs, 0, time.UTC).AddDate(0, 0, yd.Day-1)
	}
	return out, nil
}
