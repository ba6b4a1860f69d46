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

package rel

import "fmt"

// Map is a finite union of basic maps sharing one space.
type Map struct {
	Space Space
	Bmaps []BasicMap
}

// Set is a relation without input dimensions.
type Set = Map

// FromBasicMap wraps a single basic map as a union.
func FromBasicMap(bm BasicMap) Map {
	bm = bm.normalize()
	m := Map{Space: bm.Space}
	if !bm.isMarkedEmpty() {
		m.Bmaps = []BasicMap{bm}
	}
	return m
}

// EmptyMap returns the empty relation over a space.
func EmptyMap(space Space) Map {
	return Map{Space: space}
}

// UniverseMap returns the unconstrained relation over a space.
func UniverseMap(space Space) Map {
	return FromBasicMap(UniverseBasicMap(space))
}

// Single returns the only basic map of m.  It is a contract violation
// to call it on a union of several conjuncts.
func (m Map) Single() (BasicMap, error) {
	switch len(m.Bmaps) {
	case 0:
		return markedEmpty(m.Space), nil
	case 1:
		return m.Bmaps[0], nil
	default:
		return BasicMap{}, fmt.Errorf("rel: expected a single conjunct, have %d", len(m.Bmaps))
	}
}

func (m Map) compact() Map {
	out := Map{Space: m.Space}
	for _, bm := range m.Bmaps {
		bm = bm.normalize()
		if !bm.isMarkedEmpty() {
			out.Bmaps = append(out.Bmaps, bm)
		}
	}
	return out
}

// align re-embeds two maps into the merged parameter space.
func align(a, b Map) (Map, Map) {
	params := alignParams(a.Space.Params, b.Space.Params)
	return a.extendParams(params), b.extendParams(params)
}

func (m Map) extendParams(params []string) Map {
	out := Map{Space: m.Space.withParams(params)}
	for _, bm := range m.Bmaps {
		out.Bmaps = append(out.Bmaps, bm.extendParamsTo(params))
	}
	return out
}

// Union returns the union of two relations over the same tuples.
func Union(a, b Map) (Map, error) {
	a, b = align(a, b)
	if !a.Space.Equal(b.Space) {
		return Map{}, fmt.Errorf("rel: union of distinct spaces")
	}
	out := Map{Space: a.Space}
	out.Bmaps = append(out.Bmaps, a.Bmaps...)
	out.Bmaps = append(out.Bmaps, b.Bmaps...)
	return out.compact(), nil
}

// Intersect returns the intersection of two relations over the same
// tuples.
func Intersect(a, b Map) (Map, error) {
	a, b = align(a, b)
	if !a.Space.Equal(b.Space) {
		return Map{}, fmt.Errorf("rel: intersect of distinct spaces")
	}
	out := Map{Space: a.Space}
	for _, x := range a.Bmaps {
		for _, y := range b.Bmaps {
			bm, err := intersectBasic(x, y)
			if err != nil {
				return Map{}, err
			}
			out.Bmaps = append(out.Bmaps, bm)
		}
	}
	return out.compact(), nil
}

// Reverse swaps the input and output tuples of every conjunct.
func Reverse(m Map) Map {
	out := Map{Space: m.Space.Reverse()}
	for _, bm := range m.Bmaps {
		out.Bmaps = append(out.Bmaps, bm.reverse())
	}
	return out
}

// ApplyRange composes a: x -> y with b: y -> z into x -> z.
func ApplyRange(a, b Map) (Map, error) {
	a, b = align(a, b)
	out := Map{Space: MapSpace(a.Space.Params,
		a.Space.In.Name, a.Space.In.N, b.Space.Out.Name, b.Space.Out.N)}
	for _, x := range a.Bmaps {
		for _, y := range b.Bmaps {
			bm, err := applyRangeBasic(x, y)
			if err != nil {
				return Map{}, err
			}
			out.Bmaps = append(out.Bmaps, bm)
		}
	}
	return out.compact(), nil
}

// ApplyDomain composes m: x -> y with ctx: x -> z into z -> y,
// replacing the domain of m by the image of ctx.
func ApplyDomain(m, ctx Map) (Map, error) {
	return ApplyRange(Reverse(ctx), m)
}

// IntersectRange restricts the output tuple of m to the set s.
func IntersectRange(m Map, s Set) (Map, error) {
	m, s = align(m, s)
	if s.Space.In.N != 0 || s.Space.Out != m.Space.Out {
		return Map{}, fmt.Errorf("rel: range restriction tuple mismatch")
	}
	// Embed s into m's space: same out block, empty in block.
	emb := Map{Space: m.Space}
	for _, bm := range s.Bmaps {
		e := BasicMap{Space: m.Space, NDiv: bm.NDiv}
		nP := m.Space.NParam()
		for _, c := range bm.Cons {
			coef := make([]int64, e.nCol())
			coef[0] = c.Coef[0]
			copy(coef[1:1+nP], c.Coef[1:1+nP])
			copy(coef[1+nP+m.Space.In.N:], c.Coef[1+nP:])
			e.Cons = append(e.Cons, Constraint{Eq: c.Eq, Coef: coef})
		}
		emb.Bmaps = append(emb.Bmaps, e)
	}
	return Intersect(m, emb)
}

// IntersectParams restricts m by the constraints of a parameter-only
// context set (a set with a zero-dimensional tuple).
func IntersectParams(m Map, ctx Set) (Map, error) {
	if ctx.Space.Out.N != 0 || ctx.Space.In.N != 0 {
		return Map{}, fmt.Errorf("rel: context is not parameter-only")
	}
	m, ctx = align(m, ctx)
	emb := Map{Space: m.Space}
	nP := m.Space.NParam()
	for _, bm := range ctx.Bmaps {
		e := BasicMap{Space: m.Space, NDiv: bm.NDiv}
		for _, c := range bm.Cons {
			coef := make([]int64, e.nCol())
			copy(coef[:1+nP], c.Coef[:1+nP])
			copy(coef[1+nP+m.Space.In.N+m.Space.Out.N:], c.Coef[1+nP:])
			e.Cons = append(e.Cons, Constraint{Eq: c.Eq, Coef: coef})
		}
		emb.Bmaps = append(emb.Bmaps, e)
	}
	if len(emb.Bmaps) == 0 {
		return EmptyMap(m.Space), nil
	}
	return Intersect(m, emb)
}

// IntersectDomain restricts the input tuple of m to the set s.
func IntersectDomain(m Map, s Set) (Map, error) {
	r, err := IntersectRange(Reverse(m), s)
	if err != nil {
		return Map{}, err
	}
	return Reverse(r), nil
}

// ProjectOutputs existentially quantifies n output dimensions starting
// at first.
func ProjectOutputs(m Map, first, n int) (Map, error) {
	if first < 0 || first+n > m.Space.Out.N {
		return Map{}, fmt.Errorf("rel: project [%d,%d) out of %d output dims",
			first, first+n, m.Space.Out.N)
	}
	out := Map{Space: m.Space}
	out.Space.Out.N -= n
	for _, bm := range m.Bmaps {
		out.Bmaps = append(out.Bmaps, projectOutBasic(bm, first, n))
	}
	return out.compact(), nil
}

// Range projects away the input tuple, leaving the set of images.
func Range(m Map) Set {
	rev := Reverse(m)
	s, _ := ProjectOutputs(rev, 0, rev.Space.Out.N)
	s = Reverse(s)
	s.Space.In = Tuple{}
	for i := range s.Bmaps {
		s.Bmaps[i].Space.In = Tuple{}
	}
	return s
}

// Domain projects away the output tuple, leaving the set of sources.
func Domain(m Map) Set {
	return Range(Reverse(m))
}

// Contains reports whether the integer point given by parameter,
// input and output values (in space order) lies in m.
func (m Map) Contains(params, in, out []int64) bool {
	var vals []int64
	vals = append(vals, params...)
	vals = append(vals, in...)
	vals = append(vals, out...)
	for _, bm := range m.Bmaps {
		if bm.containsPoint(vals) {
			return true
		}
	}
	return false
}

// containsPoint substitutes the dimension values, leaving a system
// over the divs alone, and checks it for integer points.
func (bm BasicMap) containsPoint(vals []int64) bool {
	if len(vals) != bm.Space.NParam()+bm.Space.In.N+bm.Space.Out.N {
		return false
	}
	sub := BasicMap{Space: SetSpace(nil, bm.Space.Out.Name, bm.NDiv)}
	for _, c := range bm.Cons {
		coef := make([]int64, 1+bm.NDiv)
		coef[0] = c.Coef[0]
		for i, v := range vals {
			coef[0] += c.Coef[1+i] * v
		}
		copy(coef[1:], c.Coef[1+len(vals):])
		sub.Cons = append(sub.Cons, Constraint{Eq: c.Eq, Coef: coef})
	}
	return !IsEmpty(FromBasicMap(sub))
}
