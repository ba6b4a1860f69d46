// Copyright 2026 go-polyhedra Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memtier

import (
	"fmt"

	"github.com/go-polyhedra/memtier/rel"
)

// ArrayBound describes one dimension of a memory tile: a constant
// size, a lower-bound offset expression in the outer dimensions and
// parameters, and optionally a stride: when Stride > 0, index + Shift
// is always a multiple of Stride and the tile is re-indexed through
// i -> (i + Shift) / Stride (ShiftMap).
type ArrayBound struct {
	Size int64
	LB   rel.Aff

	Stride   int64
	Shift    rel.Aff
	ShiftMap rel.Map
}

// HasStride reports whether the visited indices form a non-contiguous
// progression.
func (b ArrayBound) HasStride() bool { return b.Stride > 0 }

// solveBounds attempts to confine the combined access relation to a
// fixed-size tile, one bound per array dimension.  It projects the
// relation onto each index in turn and looks for a parametric offset
// such that the size is constant.  The second result is false when
// some dimension admits no finite constant size, which callers treat
// as "fall back to the slower tier", never as an error.
func solveBounds(access rel.Map, nIndex int) ([]ArrayBound, bool, error) {
	bounds := make([]ArrayBound, nIndex)
	for i := 0; i < nIndex; i++ {
		proj, err := rel.ProjectOutputs(access, i+1, nIndex-(i+1))
		if err != nil {
			return nil, false, fmt.Errorf("memtier: bound dim %d: %w", i, err)
		}
		proj, err = rel.ProjectOutputs(proj, 0, i)
		if err != nil {
			return nil, false, fmt.Errorf("memtier: bound dim %d: %w", i, err)
		}
		hull, err := rel.SimpleHull(proj)
		if err != nil {
			return nil, false, fmt.Errorf("memtier: bound dim %d: %w", i, err)
		}
		b, ok, err := solveDim(hull)
		if err != nil {
			return nil, false, fmt.Errorf("memtier: bound dim %d: %w", i, err)
		}
		if !ok {
			return nil, false, nil
		}
		bounds[i] = b
	}
	return bounds, true, nil
}

// solveDim computes the bound of a single array dimension from the
// hull of the access projected onto it.
func solveDim(hull rel.BasicMap) (ArrayBound, bool, error) {
	bound := ArrayBound{}
	rewritten, err := checkStride(&bound, hull)
	if err != nil {
		return ArrayBound{}, false, err
	}

	found := false
	affSpace := rel.MapSpace(rewritten.Space.Params,
		rewritten.Space.In.Name, rewritten.Space.In.N, "", 0)
	for _, bm := range rewritten.Bmaps {
		for _, v := range bm.Views() {
			if v.InvolvesDiv() {
				continue
			}
			if v.Eq && v.Out[0] < 0 {
				v = v.Negate()
			}
			m := v.Out[0]
			if m <= 0 {
				continue
			}
			// The constraint is m*i >= b with b = -(Cst + params + ins).
			// The offset is ceil(b/m); maximizing the distance
			// i - ceil(b/m) = floor((m*i - b)/m) bounds the tile at
			// max + 1.  The ceiling is applied inside the query so
			// that the division never widens the size.
			obj := rel.Objective{
				Cst:   v.Cst,
				Param: append([]int64(nil), v.Param...),
				In:    append([]int64(nil), v.In...),
				Out:   []int64{m},
			}
			max, res := rel.MaxQuotAffine(rewritten, obj, m)
			if res != rel.LpOK {
				continue
			}
			size := max + 1
			if found && size >= bound.Size {
				continue
			}
			lb := rel.Aff{Space: affSpace, Den: m, Cst: -v.Cst}
			lb.Param = negated(v.Param)
			lb.In = negated(v.In)
			bound.Size = size
			bound.LB = lb
			found = true
		}
	}
	return bound, found, nil
}

// checkStride looks for an equality of the form
//
//	index + shift(params) = stride * f(existentials)
//
// among the defining equalities of the hull.  If one exists, the
// stride and shift are recorded and the hull is rewritten through the
// map i -> (i + shift) / stride so that the tile is addressed densely.
func checkStride(bound *ArrayBound, hull rel.BasicMap) (rel.Map, error) {
	aff := rel.AffineHull(hull)
	space := hull.Space

	for _, v := range aff.Views() {
		if v.Out[0] != 1 && v.Out[0] != -1 {
			continue
		}
		stride := int64(0)
		for _, d := range v.Div {
			stride = gcd64(stride, d)
		}
		if stride == 0 || stride <= bound.Stride {
			continue
		}
		if anyNonzero(v.In) {
			// The shift must be a pure parameter expression for the
			// re-indexing map to be well formed.
			continue
		}
		shift := rel.Aff{
			Space: rel.MapSpace(space.Params, space.In.Name, space.In.N, "", 0),
			Den:   1,
			Cst:   v.Cst,
			Param: append([]int64(nil), v.Param...),
			In:    make([]int64, space.In.N),
		}
		if v.Out[0] < 0 {
			neg, err := shift.Neg()
			if err != nil {
				return rel.Map{}, err
			}
			shift = neg
		}
		bound.Stride = stride
		bound.Shift = shift
	}

	if bound.Stride == 0 {
		return rel.FromBasicMap(hull), nil
	}

	shiftMap, err := shiftMap(space.Params, space.Out.Name, bound.Shift, bound.Stride)
	if err != nil {
		return rel.Map{}, err
	}
	bound.ShiftMap = shiftMap
	return rel.ApplyRange(rel.FromBasicMap(hull), shiftMap)
}

// shiftMap builds { i -> j : stride * j = i + shift }.
func shiftMap(params []string, tuple string, shift rel.Aff, stride int64) (rel.Map, error) {
	space := rel.MapSpace(params, tuple, 1, tuple, 1)
	bm := rel.UniverseBasicMap(space)
	v := rel.ConstraintView{
		Eq:    true,
		Cst:   shift.Cst,
		Param: append([]int64(nil), shift.Param...),
		In:    []int64{1},
		Out:   []int64{-stride},
	}
	bm, err := bm.AddConstraint(v)
	if err != nil {
		return rel.Map{}, err
	}
	return rel.FromBasicMap(bm), nil
}

func negated(xs []int64) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = -x
	}
	return out
}

func anyNonzero(xs []int64) bool {
	for _, x := range xs {
		if x != 0 {
			return true
		}
	}
	return false
}

func gcd64(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
