// Package duplex reconstructs the two logical axes that model output packs
// into one combined ("duplexed") axis, such as FATES' fates_levagepft, whose
// extent is the product of the age-class and PFT axis extents.
//
// Which of the two axes varies fastest along the combined axis is a property
// of the data producer, so it is passed in explicitly as a Layout rather than
// assumed.
package duplex

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chrissnell/ctsmpost/pkg/labeled"
)

// Layout describes how the outer and inner axes are interleaved along the
// combined axis.
type Layout int

const (
	// InnerFastest: combined position i holds (outer i/len(inner), inner i%len(inner)).
	InnerFastest Layout = iota
	// OuterFastest: combined position i holds (outer i%len(outer), inner i/len(outer)).
	OuterFastest
)

func (l Layout) String() string {
	switch l {
	case InnerFastest:
		return "inner-fastest"
	case OuterFastest:
		return "outer-fastest"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

var (
	// ErrAxisNotFound: the combined axis is not on the array.
	ErrAxisNotFound = labeled.ErrAxisNotFound
	// ErrDuplicateAxis: a new axis name is already used by the array.
	ErrDuplicateAxis = labeled.ErrDuplicateAxis
	// ErrIncompatibleSplit: len(outer)*len(inner) differs from the combined extent.
	ErrIncompatibleSplit = errors.New("duplex: incompatible split")
	// ErrUnknownLayout: a Layout value other than the declared constants.
	ErrUnknownLayout = errors.New("duplex: unknown layout")
	// ErrUnsupportedInput: a variable argument that is neither a name nor an array.
	ErrUnsupportedInput = errors.New("duplex: unsupported input type")
)

// Spec configures one split. The zero values of Layout and AppendFast give
// the default behaviour: inner axis fastest, and the new pair placed where the
// combined axis was, outer first.
type Spec struct {
	Combined    string
	Outer       string
	Inner       string
	OuterCoords []any
	InnerCoords []any
	Layout      Layout

	// AppendFast leaves the slower axis at the combined axis' position and
	// appends the faster one after all other axes. It skips a transpose for
	// the common layout; callers that care about axis order leave it false.
	AppendFast bool
}

// slowFast orders the two new axes by stride.
func (s Spec) slowFast() (slow, fast labeled.Axis, err error) {
	outer := labeled.Axis{Name: s.Outer, Coords: s.OuterCoords}
	inner := labeled.Axis{Name: s.Inner, Coords: s.InnerCoords}
	switch s.Layout {
	case InnerFastest:
		return outer, inner, nil
	case OuterFastest:
		return inner, outer, nil
	}
	return slow, fast, fmt.Errorf("%w: %v", ErrUnknownLayout, s.Layout)
}

// Split replaces the combined axis of a with the outer and inner axes of s.
// The input array is not modified.
func Split(a *labeled.Array, s Spec) (*labeled.Array, error) {
	pos, ok := a.AxisIndex(s.Combined)
	if !ok {
		return nil, fmt.Errorf("%w: %q not in %v", ErrAxisNotFound, s.Combined, a.Dims())
	}
	extent := a.Shape()[pos]
	if len(s.OuterCoords)*len(s.InnerCoords) != extent {
		return nil, fmt.Errorf("%w: %s (%d) x %s (%d) != %s (%d)", ErrIncompatibleSplit,
			s.Outer, len(s.OuterCoords), s.Inner, len(s.InnerCoords), s.Combined, extent)
	}
	if s.Outer == s.Inner {
		return nil, fmt.Errorf("%w: outer and inner both named %q", ErrDuplicateAxis, s.Outer)
	}
	for _, name := range []string{s.Outer, s.Inner} {
		if _, exists := a.AxisIndex(name); exists {
			return nil, fmt.Errorf("%w: %q already in %v", ErrDuplicateAxis, name, a.Dims())
		}
	}

	slow, fast, err := s.slowFast()
	if err != nil {
		return nil, err
	}
	out, err := a.SplitAxis(s.Combined, slow, fast)
	if err != nil {
		return nil, err
	}

	dims := out.Dims()
	var order []string
	if s.AppendFast {
		order = append(slices.DeleteFunc(slices.Clone(dims), func(d string) bool { return d == fast.Name }), fast.Name)
	} else {
		order = slices.Clone(dims)
		order[pos], order[pos+1] = s.Outer, s.Inner
	}
	if slices.Equal(order, dims) {
		return out, nil
	}
	return out.Transpose(order...)
}

// Merge is the inverse of Split: it folds the outer and inner axes back into
// one combined axis using layout, at the position of whichever of the two
// comes first. Nil coords number the combined axis 0..n-1.
func Merge(a *labeled.Array, outer, inner, combined string, layout Layout, coords []any) (*labeled.Array, error) {
	for _, name := range []string{outer, inner} {
		if _, ok := a.AxisIndex(name); !ok {
			return nil, fmt.Errorf("%w: %q not in %v", ErrAxisNotFound, name, a.Dims())
		}
	}

	slow, fast := outer, inner
	switch layout {
	case InnerFastest:
	case OuterFastest:
		slow, fast = inner, outer
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownLayout, layout)
	}

	dims := a.Dims()
	order := make([]string, 0, len(dims))
	for _, d := range dims {
		switch d {
		case outer, inner:
			if !slices.Contains(order, slow) {
				order = append(order, slow, fast)
			}
		default:
			order = append(order, d)
		}
	}

	if !slices.Equal(order, dims) {
		var err error
		if a, err = a.Transpose(order...); err != nil {
			return nil, err
		}
	}
	return a.MergeAxes(slow, fast, labeled.Axis{Name: combined, Coords: coords})
}
