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

import "github.com/go-polyhedra/memtier/rel"

// interchangeForUnroll finds every tiled loop involved in the index
// expression of a private access, moves those loops innermost and
// marks the start of the moved block in plan.FirstUnroll.  Register
// indices must be compile-time constants, so the loops they depend on
// have to be unrolled; they can only be moved when they all lie in
// the thread-parallel range, which the bijectivity check of the
// promotion pass already arranged for well-formed inputs.
//
// When no private group exists, or the dependent set is empty or
// falls outside the parallel range, the schedules pass through
// unchanged and FirstUnroll stays -1.
func (k *Kernel) interchangeForUnroll(plan *Plan) error {
	for name, sched := range k.TiledSched {
		plan.Schedules[name] = sched
	}

	unroll := make([]bool, k.TiledLen)
	for _, groups := range plan.Groups {
		for _, g := range groups {
			if g.Tile == nil || g.Tile.Tier != TierPrivate {
				continue
			}
			acc, err := k.tiledAccess(g)
			if err != nil {
				return err
			}
			markDependentDims(acc, unroll)
		}
	}

	parallelEnd := k.SharedLen + k.NParallel
	moved := 0
	for i, u := range unroll {
		if !u {
			continue
		}
		if i < k.SharedLen || i >= parallelEnd {
			return nil
		}
		moved++
	}
	if moved == 0 {
		return nil
	}

	pos := make([]int, k.TiledLen)
	j := 0
	for i := range pos {
		if !unroll[i] {
			pos[i] = j
			j++
		}
	}
	plan.FirstUnroll = j
	for i := range pos {
		if unroll[i] {
			pos[i] = j
			j++
		}
	}

	perm, err := Permutation(nil, k.tuple, pos)
	if err != nil {
		return err
	}
	for name, sched := range k.TiledSched {
		plan.Schedules[name], err = rel.ApplyRange(sched, perm)
		if err != nil {
			return err
		}
	}
	return nil
}

// markDependentDims sets the flag of every input dimension appearing
// in a defining equality of an output dimension, for every conjunct
// of the access.
func markDependentDims(acc rel.Map, unroll []bool) {
	for _, bm := range acc.Bmaps {
		for i := 0; i < bm.Space.Out.N; i++ {
			eq, ok := rel.DefiningEquality(bm, i)
			if !ok {
				continue
			}
			for j, c := range eq.In {
				if c != 0 {
					unroll[j] = true
				}
			}
		}
	}
}
