package labeled

import (
	"fmt"
	"slices"
)

// offsets lists, in row-major order over shape, the buffer offsets
// base + sum(idx[d]*strides[d]).
func offsets(base int, shape, strides []int) []int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	out := make([]int, n)
	idx := make([]int, len(shape))
	off := base
	for k := range out {
		out[k] = off
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			off += strides[d]
			if idx[d] < shape[d] {
				break
			}
			off -= strides[d] * shape[d]
			idx[d] = 0
		}
	}
	return out
}

func (a *Array) gather(offs []int) []float64 {
	out := make([]float64, len(offs))
	for k, o := range offs {
		out[k] = a.data[o]
	}
	return out
}

func without[T any](s []T, i int) []T {
	return slices.Delete(slices.Clone(s), i, i+1)
}

// Isel selects position i along the named axis and drops that axis.
func (a *Array) Isel(name string, i int) (*Array, error) {
	ax, err := a.mustAxis(name)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= a.shape[ax] {
		return nil, fmt.Errorf("%w: %d on axis %q of extent %d", ErrIndex, i, name, a.shape[ax])
	}
	offs := offsets(i*a.strides[ax], without(a.shape, ax), without(a.strides, ax))
	return build(a.gather(offs), without(a.axes, ax), a.attrs)
}

// Mask keeps the positions along the named axis where keep is true.
func (a *Array) Mask(name string, keep []bool) (*Array, error) {
	ax, err := a.mustAxis(name)
	if err != nil {
		return nil, err
	}
	if len(keep) != a.shape[ax] {
		return nil, fmt.Errorf("%w: mask of length %d for axis %q of extent %d", ErrShape, len(keep), name, a.shape[ax])
	}

	var kept []int
	var coords []any
	for i, k := range keep {
		if k {
			kept = append(kept, i)
			coords = append(coords, a.axes[ax].Coords[i])
		}
	}

	// Move the masked axis to the front, take whole slabs, then restore order.
	outer := without(a.shape, ax)
	outerStrides := without(a.strides, ax)
	slab := offsets(0, outer, outerStrides)
	data := make([]float64, 0, len(kept)*len(slab))
	for _, i := range kept {
		for _, o := range slab {
			data = append(data, a.data[o+i*a.strides[ax]])
		}
	}

	axes := slices.Clone(a.axes)
	axes[ax] = Axis{Name: name, Coords: coords}
	front := append([]Axis{axes[ax]}, without(axes, ax)...)
	tmp, err := build(data, front, a.attrs)
	if err != nil {
		return nil, err
	}
	return tmp.Transpose(a.Dims()...)
}

// Transpose reorders the axes. order must name every axis exactly once.
func (a *Array) Transpose(order ...string) (*Array, error) {
	if len(order) != len(a.axes) {
		return nil, fmt.Errorf("%w: order %v is not a permutation of %v", ErrShape, order, a.Dims())
	}
	perm := make([]int, len(order))
	seen := make(map[string]struct{}, len(order))
	for j, name := range order {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q repeated in order %v", ErrDuplicateAxis, name, order)
		}
		seen[name] = struct{}{}
		i, err := a.mustAxis(name)
		if err != nil {
			return nil, err
		}
		perm[j] = i
	}
	return a.permute(perm), nil
}

func (a *Array) permute(perm []int) *Array {
	axes := make([]Axis, len(perm))
	shape := make([]int, len(perm))
	strides := make([]int, len(perm))
	for j, p := range perm {
		axes[j] = a.axes[p]
		shape[j] = a.shape[p]
		strides[j] = a.strides[p]
	}
	out, _ := build(a.gather(offsets(0, shape, strides)), axes, a.attrs)
	return out
}

// SplitAxis reshapes the named axis into two adjacent axes, slow then fast,
// where position i of the original axis becomes (i / fast.Len(), i % fast.Len()).
// No data moves: this is a pure row-major reshape.
func (a *Array) SplitAxis(name string, slow, fast Axis) (*Array, error) {
	ax, err := a.mustAxis(name)
	if err != nil {
		return nil, err
	}
	if slow.Len()*fast.Len() != a.shape[ax] {
		return nil, fmt.Errorf("%w: %d x %d does not tile axis %q of extent %d",
			ErrShape, slow.Len(), fast.Len(), name, a.shape[ax])
	}
	for _, n := range []string{slow.Name, fast.Name} {
		if _, ok := a.AxisIndex(n); ok {
			return nil, fmt.Errorf("%w: %q already in %v", ErrDuplicateAxis, n, a.Dims())
		}
	}
	axes := slices.Concat(a.axes[:ax], []Axis{slow, fast}, a.axes[ax+1:])
	return build(a.data, axes, a.attrs)
}

// MergeAxes is the inverse of SplitAxis: slow and fast must be adjacent, slow
// first, and merged.Len() must equal their combined extent. Nil coordinates
// on merged are replaced with IndexCoords.
func (a *Array) MergeAxes(slow, fast string, merged Axis) (*Array, error) {
	i, err := a.mustAxis(slow)
	if err != nil {
		return nil, err
	}
	j, err := a.mustAxis(fast)
	if err != nil {
		return nil, err
	}
	if j != i+1 {
		return nil, fmt.Errorf("%w: %q must immediately follow %q in %v", ErrShape, fast, slow, a.Dims())
	}
	n := a.shape[i] * a.shape[j]
	if merged.Coords == nil {
		merged.Coords = IndexCoords(n)
	}
	if merged.Len() != n {
		return nil, fmt.Errorf("%w: %d coordinates for merged axis of extent %d", ErrShape, merged.Len(), n)
	}
	for k, ax := range a.axes {
		if k != i && k != j && ax.Name == merged.Name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAxis, merged.Name)
		}
	}
	axes := slices.Concat(a.axes[:i], []Axis{merged}, a.axes[j+1:])
	return build(a.data, axes, a.attrs)
}

// Reduce collapses the named axis, calling fn once per lane with the values
// along that axis in order.
func (a *Array) Reduce(name string, fn func(lane []float64) float64) (*Array, error) {
	ax, err := a.mustAxis(name)
	if err != nil {
		return nil, err
	}
	bases := offsets(0, without(a.shape, ax), without(a.strides, ax))
	out := make([]float64, len(bases))
	lane := make([]float64, a.shape[ax])
	for k, b := range bases {
		for j := range lane {
			lane[j] = a.data[b+j*a.strides[ax]]
		}
		out[k] = fn(lane)
	}
	return build(out, without(a.axes, ax), a.attrs)
}
