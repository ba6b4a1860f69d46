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

	"github.com/go-polyhedra/memtier/internal/dsu"
	"github.com/go-polyhedra/memtier/rel"
)

// MemoryTier names the memory level a tiled group is assigned to.
type MemoryTier int

const (
	TierShared MemoryTier = iota + 1
	TierPrivate
)

func (t MemoryTier) String() string {
	switch t {
	case TierShared:
		return "shared"
	case TierPrivate:
		return "private"
	default:
		return "global"
	}
}

// MemoryTile is the tier assignment of a group together with the
// per-dimension bounds addressing the tile.  A group without a tile
// reads and writes global memory directly.
type MemoryTile struct {
	Tier   MemoryTier
	Bounds []ArrayBound
}

// RefGroup is a set of references to one array that share a memory
// tile.  Access is the union of the members' accesses as seen from
// the block-level coordinates; Write is set when any member writes.
type RefGroup struct {
	Array *ArrayInfo
	Nr    int

	Access rel.Map
	Write  bool
	Refs   []*ArrayReference

	Tile *MemoryTile

	// LastShared is the innermost shared loop the tile offsets depend
	// on, -1 when they are invariant in all shared loops.
	LastShared int
}

// groupReferences builds the finalized reference groups of one array
// for the current kernel: instantiate the active references, force
// conflicting accesses together, try a shared tile per group and
// merge groups whose union still tiles.
func (k *Kernel) groupReferences(arr *ArrayInfo) ([]*RefGroup, error) {
	groups, err := k.populateGroups(arr)
	if err != nil {
		return nil, err
	}
	d := dsu.New(len(groups))
	if err := mergeOverlappingWrites(groups, d); err != nil {
		return nil, err
	}
	for _, r := range d.Roots() {
		g := groups[r]
		bounds, ok, err := solveBounds(g.Access, arr.NIndex)
		if err != nil {
			return nil, err
		}
		if ok {
			g.Tile = &MemoryTile{Tier: TierShared, Bounds: bounds}
		}
	}
	if err := mergeSharedTiles(groups, d, arr.NIndex); err != nil {
		return nil, err
	}

	var out []*RefGroup
	for _, r := range d.Roots() {
		g := groups[r]
		g.Nr = len(out)
		for _, ref := range g.Refs {
			ref.Group = g.Nr
		}
		out = append(out, g)
	}
	return out, nil
}

// populateGroups makes one singleton group per reference active in
// this kernel.  The access is applied to the block-level schedule so
// that overlap means "touched by the same block instance".
func (k *Kernel) populateGroups(arr *ArrayInfo) ([]*RefGroup, error) {
	var groups []*RefGroup
	for _, ref := range arr.Refs {
		sched, ok := k.blockSched[ref.Stmt.Name]
		if !ok {
			continue
		}
		active, err := rel.IntersectDomain(ref.Access, ref.Stmt.Domain)
		if err != nil {
			return nil, err
		}
		acc, err := rel.ApplyDomain(active, sched)
		if err != nil {
			return nil, err
		}
		if rel.IsEmpty(acc) {
			continue
		}
		groups = append(groups, &RefGroup{
			Array:      arr,
			Access:     acc,
			Write:      ref.Write,
			Refs:       []*ArrayReference{ref},
			LastShared: -1,
		})
	}
	return groups, nil
}

// mergeOverlappingWrites unions any two groups whose accesses overlap
// when at least one of them writes.  The scan visits i in order and
// walks j downward, always merging into the lower index and carrying
// the merged group along, so chains of overlaps collapse in one pass.
func mergeOverlappingWrites(groups []*RefGroup, d *dsu.DSU) error {
	for i := range groups {
		l := i
		for j := i - 1; j >= 0; j-- {
			if d.Find(j) != j || d.Same(l, j) {
				continue
			}
			if !groups[l].Write && !groups[j].Write {
				continue
			}
			overlap, err := rel.Intersect(groups[l].Access, groups[j].Access)
			if err != nil {
				return err
			}
			if rel.IsEmpty(overlap) {
				continue
			}
			if err := mergeGroups(groups[j], groups[l]); err != nil {
				return err
			}
			d.MergeInto(j, l)
			l = j
		}
	}
	return nil
}

// mergeSharedTiles joins groups that both carry a shared tile when
// their combined access still admits one, cutting the number of
// scratchpad buffers and copy loops.  Same scan shape and merge
// direction as the conflict pass.
func mergeSharedTiles(groups []*RefGroup, d *dsu.DSU, nIndex int) error {
	for i := range groups {
		if d.Find(i) != i {
			continue
		}
		l := i
		for j := i - 1; j >= 0; j-- {
			if d.Find(j) != j || d.Same(l, j) {
				continue
			}
			if groups[l].Tile == nil || groups[j].Tile == nil {
				continue
			}
			overlap, err := rel.Intersect(groups[l].Access, groups[j].Access)
			if err != nil {
				return err
			}
			if rel.IsEmpty(overlap) {
				continue
			}
			union, err := rel.Union(groups[j].Access, groups[l].Access)
			if err != nil {
				return err
			}
			bounds, ok, err := solveBounds(union, nIndex)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := mergeGroups(groups[j], groups[l]); err != nil {
				return err
			}
			groups[j].Tile = &MemoryTile{Tier: TierShared, Bounds: bounds}
			d.MergeInto(j, l)
			l = j
		}
	}
	return nil
}

// mergeGroups folds src into dst.
func mergeGroups(dst, src *RefGroup) error {
	if dst == src {
		return fmt.Errorf("group merged into itself")
	}
	acc, err := rel.Union(dst.Access, src.Access)
	if err != nil {
		return err
	}
	dst.Access = acc
	dst.Write = dst.Write || src.Write
	dst.Refs = append(dst.Refs, src.Refs...)
	return nil
}
