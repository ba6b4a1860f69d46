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

// Package memtier decides, for every array reference active inside a
// tiled kernel, whether it can live in a private (register) tile, a
// shared (scratchpad) tile, or must stay in global memory, and
// computes the size, offset and stride needed to address each tile.
package memtier

import (
	"fmt"

	"github.com/go-polyhedra/memtier/rel"
)

// Tile builds the relation from a length-dim tuple to a
// (length+tileLen)-dim tuple that copies every coordinate outside
// [first, first+tileLen) unchanged and splits coordinate first+i into
// its block index sizes[i] and in-block offset:
//
//	out[first+i]         = in[first+i] div sizes[i]
//	out[first+tileLen+i] = in[first+i] mod sizes[i]
//
// Coordinates after the tiled block shift up by tileLen.
func Tile(params []string, name string, length, first, tileLen int, sizes []int64) (rel.Map, error) {
	if err := checkBlock(length, first, tileLen, len(sizes)); err != nil {
		return rel.Map{}, fmt.Errorf("memtier: tile: %w", err)
	}
	space := rel.MapSpace(params, name, length, name, length+tileLen)
	bm := rel.UniverseBasicMap(space)
	var err error

	for i := 0; i < length-tileLen; i++ {
		j, k := i, i
		if i >= first {
			j, k = i+tileLen, i+2*tileLen
		}
		bm, err = addCopy(bm, j, k)
		if err != nil {
			return rel.Map{}, err
		}
	}
	for i := 0; i < tileLen; i++ {
		in := make([]int64, length)
		out := make([]int64, length+tileLen)
		in[first+i] = -1
		out[first+i] = sizes[i]
		out[first+tileLen+i] = 1
		bm, err = bm.AddConstraint(rel.ConstraintView{Eq: true, In: in, Out: out})
		if err != nil {
			return rel.Map{}, err
		}
		bm, err = addRange(bm, first+tileLen+i, sizes[i])
		if err != nil {
			return rel.Map{}, err
		}
	}
	return rel.FromBasicMap(bm), nil
}

// Wrap builds the relation from a length-dim tuple to a
// (length+wrapLen)-dim tuple that keeps every original coordinate and
// appends, after position first+wrapLen, the remainders
//
//	out[first+wrapLen+i] = in[first+i] mod sizes[i]
//
// The quotients exist only as existentially quantified variables and
// never appear in the result, which is what distinguishes an
// interleaved (wrapped) assignment from a blocked one.
func Wrap(params []string, name string, length, first, wrapLen int, sizes []int64) (rel.Map, error) {
	if err := checkBlock(length, first, wrapLen, len(sizes)); err != nil {
		return rel.Map{}, fmt.Errorf("memtier: wrap: %w", err)
	}
	space := rel.MapSpace(params, name, length, name, length+wrapLen)
	bm := rel.BasicMap{Space: space, NDiv: wrapLen}
	var err error

	for i := 0; i < length; i++ {
		k := i
		if i >= first+wrapLen {
			k = i + wrapLen
		}
		bm, err = addCopy(bm, i, k)
		if err != nil {
			return rel.Map{}, err
		}
	}
	for i := 0; i < wrapLen; i++ {
		in := make([]int64, length)
		out := make([]int64, length+wrapLen)
		div := make([]int64, wrapLen)
		in[first+i] = -1
		out[first+wrapLen+i] = 1
		div[i] = sizes[i]
		bm, err = bm.AddConstraint(rel.ConstraintView{Eq: true, In: in, Out: out, Div: div})
		if err != nil {
			return rel.Map{}, err
		}
		bm, err = addRange(bm, first+wrapLen+i, sizes[i])
		if err != nil {
			return rel.Map{}, err
		}
	}
	return rel.FromBasicMap(bm), nil
}

// Projection builds the relation from a length-dim tuple to its first
// keep coordinates.
func Projection(params []string, name string, length, keep int) (rel.Map, error) {
	if keep < 0 || keep > length {
		return rel.Map{}, fmt.Errorf("memtier: projection keeps %d of %d dims", keep, length)
	}
	space := rel.MapSpace(params, name, length, name, keep)
	bm := rel.UniverseBasicMap(space)
	var err error
	for i := 0; i < keep; i++ {
		bm, err = addCopy(bm, i, i)
		if err != nil {
			return rel.Map{}, err
		}
	}
	return rel.FromBasicMap(bm), nil
}

// Permutation builds the relation from a length-dim tuple to itself
// with out[pos[i]] = in[i].
func Permutation(params []string, name string, pos []int) (rel.Map, error) {
	length := len(pos)
	space := rel.MapSpace(params, name, length, name, length)
	bm := rel.UniverseBasicMap(space)
	var err error
	for i, p := range pos {
		if p < 0 || p >= length {
			return rel.Map{}, fmt.Errorf("memtier: permutation target %d out of range", p)
		}
		bm, err = addCopy(bm, i, p)
		if err != nil {
			return rel.Map{}, err
		}
	}
	return rel.FromBasicMap(bm), nil
}

// Next builds the relation from a length-dim tuple to itself that
// increments coordinate pos and fixes all others.
func Next(params []string, name string, length, pos int) (rel.Map, error) {
	space := rel.MapSpace(params, name, length, name, length)
	bm := rel.UniverseBasicMap(space)
	var err error
	for i := 0; i < length; i++ {
		in := make([]int64, length)
		out := make([]int64, length)
		in[i] = 1
		out[i] = -1
		var cst int64
		if i == pos {
			cst = 1
		}
		bm, err = bm.AddConstraint(rel.ConstraintView{Eq: true, Cst: cst, In: in, Out: out})
		if err != nil {
			return rel.Map{}, err
		}
	}
	return rel.FromBasicMap(bm), nil
}

// Parametrize builds the set over a length-dim tuple that pins the
// count coordinates starting at first to fresh parameters named
// prefix0, prefix1, ...  It returns the set and the new parameter
// names, appended after params.
func Parametrize(params []string, name string, length, first, count int, prefix string) (rel.Set, []string, error) {
	if first < 0 || first+count > length {
		return rel.Set{}, nil, fmt.Errorf("memtier: parametrize [%d,%d) of %d dims", first, first+count, length)
	}
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	space := rel.SetSpace(append(append([]string{}, params...), names...), name, length)
	bm := rel.UniverseBasicMap(space)
	var err error
	for i := 0; i < count; i++ {
		param := make([]int64, space.NParam())
		out := make([]int64, length)
		param[len(params)+i] = -1
		out[first+i] = 1
		bm, err = bm.AddConstraint(rel.ConstraintView{Eq: true, Param: param, Out: out})
		if err != nil {
			return rel.Set{}, nil, err
		}
	}
	return rel.FromBasicMap(bm), names, nil
}

func checkBlock(length, first, n, sizes int) error {
	if first < 0 || n < 0 || first+n > length {
		return fmt.Errorf("block [%d,%d) out of %d dims", first, first+n, length)
	}
	if sizes != n {
		return fmt.Errorf("%d sizes for a %d-dim block", sizes, n)
	}
	return nil
}

// addCopy adds the equality out[k] = in[j].
func addCopy(bm rel.BasicMap, j, k int) (rel.BasicMap, error) {
	in := make([]int64, bm.Space.In.N)
	out := make([]int64, bm.Space.Out.N)
	div := make([]int64, bm.NDiv)
	in[j] = -1
	out[k] = 1
	return bm.AddConstraint(rel.ConstraintView{Eq: true, In: in, Out: out, Div: div})
}

// addRange adds 0 <= out[k] < size.
func addRange(bm rel.BasicMap, k int, size int64) (rel.BasicMap, error) {
	out := make([]int64, bm.Space.Out.N)
	div := make([]int64, bm.NDiv)
	out[k] = 1
	bm, err := bm.AddConstraint(rel.ConstraintView{Out: out, Div: div})
	if err != nil {
		return rel.BasicMap{}, err
	}
	out2 := make([]int64, bm.Space.Out.N)
	div2 := make([]int64, bm.NDiv)
	out2[k] = -1
	return bm.AddConstraint(rel.ConstraintView{Cst: size - 1, Out: out2, Div: div2})
}
