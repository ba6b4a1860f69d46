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

// promote decides whether a finalized group can move to lane-private
// storage, or whether its shared tile is redundant.
//
// An injective access has no reuse: nothing is gained by caching it.
// If such a group holds a shared tile and the access is coalesced,
// the tile only adds a copy, so it is dropped and the group reads
// global memory directly.
//
// A non-injective access has reuse.  The access seen from the shared
// loops plus the lane-distributed loops must partition the array
// across lanes for a private copy to be safe; bijectivity is the
// (stricter than necessary) test for that.  The privatized relation
// is then sized like a shared tile; on failure the group keeps
// whatever tier it already had.
func (k *Kernel) promote(g *RefGroup, plan *Plan) error {
	acc, err := k.tiledAccess(g)
	if err != nil {
		return err
	}

	if rel.IsInjective(acc) {
		if g.Tile != nil && g.Tile.Tier == TierShared {
			coalesced, err := k.accessIsCoalesced(acc, g.Array)
			if err != nil {
				return err
			}
			if coalesced {
				g.Tile = nil
			}
		}
		k.setLastShared(g)
		return nil
	}

	wrapped, err := rel.ApplyDomain(acc, k.projWrapped)
	if err != nil {
		return err
	}
	if !rel.IsBijective(wrapped) {
		k.setLastShared(g)
		return nil
	}

	perLane, err := rel.ApplyDomain(wrapped, k.priv)
	if err != nil {
		return err
	}
	bounds, ok, err := solveBounds(perLane, g.Array.NIndex)
	if err != nil {
		return err
	}
	if ok {
		g.Tile = &MemoryTile{Tier: TierPrivate, Bounds: bounds}
		if err := k.recordPrivateAccess(g.Array.Name, perLane, plan); err != nil {
			return err
		}
	}
	k.setLastShared(g)
	return nil
}

// accessIsCoalesced reports whether incrementing the point loop that
// wraps onto the last lane index always increments the last array
// index: consecutive lanes then touch consecutive elements.
func (k *Kernel) accessIsCoalesced(acc rel.Map, arr *ArrayInfo) (bool, error) {
	nextThread, err := Next(nil, k.tuple, k.TiledLen, k.SharedLen+k.NBlock()-1)
	if err != nil {
		return false, err
	}
	nextElement, err := Next(nil, arr.Name, arr.NIndex, arr.NIndex-1)
	if err != nil {
		return false, err
	}
	step, err := rel.ApplyDomain(nextThread, acc)
	if err != nil {
		return false, err
	}
	step, err = rel.ApplyRange(step, acc)
	if err != nil {
		return false, err
	}
	return rel.IsSubset(step, nextElement)
}

// recordPrivateAccess accumulates the elements now held in lane
// registers; the emitter excludes them from shared and global copy
// code.
func (k *Kernel) recordPrivateAccess(array string, perLane rel.Map, plan *Plan) error {
	elems := rel.Range(perLane)
	if prev, ok := plan.PrivateAccess[array]; ok {
		var err error
		elems, err = rel.Union(prev, elems)
		if err != nil {
			return err
		}
	}
	plan.PrivateAccess[array] = elems
	return nil
}

// setLastShared records the innermost shared loop that the group's
// tile offsets depend on; copy-in code must be placed below it.  A
// group without a tile, or with offsets constant in all shared loops,
// gets -1.
func (k *Kernel) setLastShared(g *RefGroup) {
	g.LastShared = -1
	if g.Tile == nil {
		return
	}
	for j := k.SharedLen - 1; j >= 0; j-- {
		for _, b := range g.Tile.Bounds {
			if b.LB.InvolvesIn(j) || (b.HasStride() && b.Shift.InvolvesIn(j)) {
				g.LastShared = j
				return
			}
		}
	}
}
