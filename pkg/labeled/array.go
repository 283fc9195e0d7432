// Package labeled implements n-dimensional float64 arrays whose axes carry a
// name and an ordered coordinate sequence.
//
// Data is stored row-major (last axis varies fastest). Arrays are never
// modified in place: every operation returns a new *Array, and the input stays
// valid and unchanged.
package labeled

import (
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Axis is a named dimension. Its extent is len(Coords).
type Axis struct {
	Name   string
	Coords []any
}

// Len returns the extent of the axis.
func (ax Axis) Len() int { return len(ax.Coords) }

// IndexCoords returns the coordinates 0..n-1, used when an axis has no
// meaningful labels.
func IndexCoords(n int) []any {
	c := make([]any, n)
	for i := range c {
		c[i] = i
	}
	return c
}

// Array is an immutable labeled n-dimensional array.
type Array struct {
	axes    []Axis
	shape   []int
	strides []int
	data    []float64
	attrs   map[string]string
}

// New builds an array from a row-major buffer and its axes. The buffer is
// copied.
func New(data []float64, axes ...Axis) (*Array, error) {
	return build(slices.Clone(data), axes, nil)
}

// build validates axes against data and takes ownership of data.
func build(data []float64, axes []Axis, attrs map[string]string) (*Array, error) {
	seen := make(map[string]struct{}, len(axes))
	shape := make([]int, len(axes))
	size := 1
	for i, ax := range axes {
		if ax.Name == "" {
			return nil, fmt.Errorf("%w: axis %d has no name", ErrShape, i)
		}
		if _, ok := seen[ax.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAxis, ax.Name)
		}
		seen[ax.Name] = struct{}{}
		shape[i] = ax.Len()
		size *= ax.Len()
	}
	if size != len(data) {
		return nil, fmt.Errorf("%w: axes %v need %d values, got %d", ErrShape, names(axes), size, len(data))
	}

	out := &Array{
		axes:    make([]Axis, len(axes)),
		shape:   shape,
		strides: rowMajorStrides(shape),
		data:    data,
		attrs:   maps.Clone(attrs),
	}
	for i, ax := range axes {
		out.axes[i] = Axis{Name: ax.Name, Coords: slices.Clone(ax.Coords)}
	}
	return out, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

func names(axes []Axis) []string {
	n := make([]string, len(axes))
	for i, ax := range axes {
		n[i] = ax.Name
	}
	return n
}

// Dims returns the axis names in order.
func (a *Array) Dims() []string { return names(a.axes) }

// Shape returns the extent of every axis.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.axes) }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.data) }

// Data returns a copy of the row-major buffer.
func (a *Array) Data() []float64 { return slices.Clone(a.data) }

// Attrs returns a copy of the array's attributes (long_name, units, ...).
func (a *Array) Attrs() map[string]string { return maps.Clone(a.attrs) }

// WithAttrs returns a copy of a carrying the given attributes.
func (a *Array) WithAttrs(attrs map[string]string) *Array {
	out := a.clone()
	out.attrs = maps.Clone(attrs)
	return out
}

// AxisIndex returns the position of the named axis.
func (a *Array) AxisIndex(name string) (int, bool) {
	for i, ax := range a.axes {
		if ax.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (a *Array) mustAxis(name string) (int, error) {
	i, ok := a.AxisIndex(name)
	if !ok {
		return -1, fmt.Errorf("%w: %q not in %v", ErrAxisNotFound, name, a.Dims())
	}
	return i, nil
}

// Axis returns a copy of the named axis.
func (a *Array) Axis(name string) (Axis, error) {
	i, err := a.mustAxis(name)
	if err != nil {
		return Axis{}, err
	}
	return Axis{Name: name, Coords: slices.Clone(a.axes[i].Coords)}, nil
}

// Coords returns a copy of the named axis' coordinates.
func (a *Array) Coords(name string) ([]any, error) {
	ax, err := a.Axis(name)
	if err != nil {
		return nil, err
	}
	return ax.Coords, nil
}

// Len returns the extent of the named axis.
func (a *Array) Len(name string) (int, error) {
	i, err := a.mustAxis(name)
	if err != nil {
		return 0, err
	}
	return a.shape[i], nil
}

// At returns the element at the given position, one index per axis.
func (a *Array) At(idx ...int) (float64, error) {
	if len(idx) != len(a.shape) {
		return 0, fmt.Errorf("%w: %d indices for %d axes", ErrIndex, len(idx), len(a.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			return 0, fmt.Errorf("%w: %d on axis %q of extent %d", ErrIndex, v, a.axes[i].Name, a.shape[i])
		}
		off += v * a.strides[i]
	}
	return a.data[off], nil
}

func (a *Array) clone() *Array {
	out, _ := build(a.data, a.axes, a.attrs)
	return out
}

// AssignCoords replaces the coordinates of one axis. The extent cannot change.
func (a *Array) AssignCoords(name string, coords []any) (*Array, error) {
	i, err := a.mustAxis(name)
	if err != nil {
		return nil, err
	}
	if len(coords) != a.shape[i] {
		return nil, fmt.Errorf("%w: %d coordinates for axis %q of extent %d", ErrShape, len(coords), name, a.shape[i])
	}
	axes := slices.Clone(a.axes)
	axes[i] = Axis{Name: name, Coords: coords}
	return build(a.data, axes, a.attrs)
}

// Rename changes an axis name.
func (a *Array) Rename(from, to string) (*Array, error) {
	i, err := a.mustAxis(from)
	if err != nil {
		return nil, err
	}
	axes := slices.Clone(a.axes)
	axes[i].Name = to
	return build(a.data, axes, a.attrs)
}

// Matrix copies a 2-D array into a gonum dense matrix, rows along the first axis.
func (a *Array) Matrix() (*mat.Dense, error) {
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("%w: matrix needs 2 axes, have %v", ErrShape, a.Dims())
	}
	if a.shape[0] == 0 || a.shape[1] == 0 {
		return nil, fmt.Errorf("%w: empty axis in %v", ErrShape, a.shape)
	}
	return mat.NewDense(a.shape[0], a.shape[1], slices.Clone(a.data)), nil
}
